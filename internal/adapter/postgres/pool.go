package postgres

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
)

const applicationName = "evidence-ledger"

// NewPool creates a PostgreSQL connection pool configured from DatabaseConfig.
// Sessions run in UTC. The pool is returned only once the database answers a
// ping, retried ConnectAttempts times ConnectDelay apart.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	// Ledger instants are stored and compared in UTC.
	rt := poolCfg.ConnConfig.RuntimeParams
	rt["timezone"] = "UTC"
	if _, ok := rt["application_name"]; !ok {
		rt["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 1
	}

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.ConnectDelay),
		retry.LastErrorOnly(true),
	)
	if err := r.Do(func() error { return pool.Ping(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
