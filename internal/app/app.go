package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/audit"
	"github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/evidence"
	pgidempotency "github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres/idempotency"
	redisidempotency "github.com/emissioncoresupport/evidence-ledger/internal/adapter/redis/idempotency"
	"github.com/emissioncoresupport/evidence-ledger/internal/auth"
	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/internal/metrics"
	"github.com/emissioncoresupport/evidence-ledger/internal/service/ledger"
	"github.com/emissioncoresupport/evidence-ledger/internal/transport/middleware"
	"github.com/emissioncoresupport/evidence-ledger/internal/transport/rest"
)

// accessTokenTTL bounds the age of tokens the ledger accepts.
const accessTokenTTL = 15 * time.Minute

// idempotencyGuard is implemented by both claim stores.
type idempotencyGuard interface {
	Claim(ctx context.Context, tenantID, key, evidenceID string, window time.Duration, now time.Time) (string, bool, error)
	Confirm(ctx context.Context, tenantID, key, evidenceID string, window time.Duration) error
	Release(ctx context.Context, tenantID, key, evidenceID string) error
}

// Run is the application entry point. It loads configuration, connects to the
// database, builds the ledger service and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("data_mode", cfg.Ledger.DataMode),
		slog.String("idempotency_backend", cfg.Ledger.IdempotencyBackend),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	health := rest.NewHealthHandler(pool, BuildVersion())

	var guard idempotencyGuard
	switch cfg.Ledger.IdempotencyBackend {
	case config.IdempotencyBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close() //nolint:errcheck

		g := redisidempotency.New(rdb)
		if err := g.Ping(ctx); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		health.WithComponent("redis", g)
		guard = g
	default:
		guard = pgidempotency.New(pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	svc := ledger.NewService(
		logger,
		evidence.New(pool),
		audit.New(pool),
		guard,
		postgres.NewTxManager(pool, postgres.WithLockTimeout(cfg.Database.LockTimeout)),
		m,
		cfg.Ledger,
	)

	limiter := middleware.NewRateLimiter(5 * time.Minute)
	defer limiter.Stop()

	handler := newRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		health:   health,
		evidence: rest.NewEvidenceHandler(svc, logger),
		tokens:   auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, accessTokenTTL),
		limiter:  limiter,
		metrics:  m,
		registry: reg,
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
