package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if strings.TrimSpace(c.Auth.JWTIssuer) == "" {
		return fmt.Errorf("auth.jwt_issuer is required")
	}

	if c.Server.RateLimit < 1 {
		return fmt.Errorf("server.rate_limit must be >= 1 (got %d)", c.Server.RateLimit)
	}

	if err := c.Ledger.validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	if c.Ledger.IdempotencyBackend == IdempotencyBackendRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required when ledger.idempotency_backend is redis")
	}

	return nil
}

func (l *LedgerConfig) validate() error {
	if !domain.DataMode(l.DataMode).IsValid() {
		return fmt.Errorf("data_mode must be one of TEST, SANDBOX, LIVE (got %q)", l.DataMode)
	}

	switch l.IdempotencyBackend {
	case IdempotencyBackendPostgres, IdempotencyBackendRedis:
	default:
		return fmt.Errorf("idempotency_backend must be postgres or redis (got %q)", l.IdempotencyBackend)
	}

	if err := checkWindow(l.IdempotencyWindow); err != nil {
		return fmt.Errorf("idempotency_window: %w", err)
	}

	windows, err := ParseSourceWindows(l.SourceWindowsRaw)
	if err != nil {
		return fmt.Errorf("source_windows: %w", err)
	}
	for source, w := range windows {
		if err := checkWindow(w); err != nil {
			return fmt.Errorf("source_windows %s: %w", source, err)
		}
	}
	l.SourceWindows = windows

	if l.GateConcurrency < 1 {
		return fmt.Errorf("gate_concurrency must be >= 1 (got %d)", l.GateConcurrency)
	}
	if l.MaxPayloadBytes < 1 {
		return fmt.Errorf("max_payload_bytes must be >= 1 (got %d)", l.MaxPayloadBytes)
	}

	return nil
}

func checkWindow(w time.Duration) error {
	if w < MinIdempotencyWindow || w > MaxIdempotencyWindow {
		return fmt.Errorf("must be between %s and %s (got %s)", MinIdempotencyWindow, MaxIdempotencyWindow, w)
	}
	return nil
}

// ParseSourceWindows parses a comma-separated list of SOURCE=duration pairs
// (e.g. "SAP=72h,ORACLE=12h"). An empty string returns an empty map.
func ParseSourceWindows(raw string) (map[string]time.Duration, error) {
	windows := make(map[string]time.Duration)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return windows, nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		source, value, ok := strings.Cut(part, "=")
		source = strings.TrimSpace(source)
		if !ok || source == "" {
			return nil, fmt.Errorf("invalid entry %q: want SOURCE=duration", part)
		}
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid duration for %s: %w", source, err)
		}
		windows[source] = d
	}

	return windows, nil
}
