package config

import (
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"33554432"`
	RateLimit       int           `yaml:"rate_limit"       env:"SERVER_RATE_LIMIT"       env-default:"600"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectAttempts uint          `yaml:"connect_attempts"   env:"DATABASE_CONNECT_ATTEMPTS"   env-default:"5"`
	ConnectDelay    time.Duration `yaml:"connect_delay"      env:"DATABASE_CONNECT_DELAY"      env-default:"1s"`
	LockTimeout     time.Duration `yaml:"lock_timeout"       env:"DATABASE_LOCK_TIMEOUT"       env-default:"5s"`
}

// RedisConfig holds Redis settings. Only used when the idempotency backend is redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// AuthConfig holds the JWT settings used to resolve tenant and user.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"compliance-platform"`
}

// Idempotency backends.
const (
	IdempotencyBackendPostgres = "postgres"
	IdempotencyBackendRedis    = "redis"
)

// Bounds for idempotency windows.
const (
	MinIdempotencyWindow = time.Hour
	MaxIdempotencyWindow = 168 * time.Hour
)

// LedgerConfig holds evidence ledger settings.
type LedgerConfig struct {
	DataMode           string        `yaml:"data_mode"            env:"LEDGER_DATA_MODE"                  env-default:"LIVE"`
	IdempotencyBackend string        `yaml:"idempotency_backend"  env:"LEDGER_IDEMPOTENCY_BACKEND"        env-default:"postgres"`
	IdempotencyWindow  time.Duration `yaml:"idempotency_window"   env:"LEDGER_IDEMPOTENCY_WINDOW"         env-default:"24h"`
	SourceWindowsRaw   string        `yaml:"source_windows"       env:"LEDGER_IDEMPOTENCY_SOURCE_WINDOWS"`
	GateConcurrency    int           `yaml:"gate_concurrency"     env:"LEDGER_GATE_CONCURRENCY"           env-default:"8"`
	MaxPayloadBytes    int           `yaml:"max_payload_bytes"    env:"LEDGER_MAX_PAYLOAD_BYTES"          env-default:"26214400"`

	// SourceWindows is parsed from SourceWindowsRaw during validation.
	SourceWindows map[string]time.Duration `yaml:"-" env:"-"`
}

// Mode returns the data mode as a domain value.
func (c LedgerConfig) Mode() domain.DataMode {
	return domain.DataMode(c.DataMode)
}

// WindowFor returns the idempotency window configured for an integration
// source, falling back to the default window.
func (c LedgerConfig) WindowFor(sourceSystem string) time.Duration {
	if w, ok := c.SourceWindows[sourceSystem]; ok {
		return w
	}
	return c.IdempotencyWindow
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// MetricsConfig holds Prometheus exposition settings. Exposition is on unless
// disabled; the zero value of a bool cannot be told apart from "unset".
type MetricsConfig struct {
	Disabled bool   `yaml:"disabled" env:"METRICS_DISABLED"`
	Path     string `yaml:"path"     env:"METRICS_PATH"     env-default:"/metrics"`
}

// Enabled reports whether /metrics is served.
func (m MetricsConfig) Enabled() bool { return !m.Disabled }
