package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager manages database transactions using the context pattern.
// Nested RunInTx calls reuse the outer transaction.
type TxManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// TxOption configures a TxManager.
type TxOption func(*TxManager)

// WithLockTimeout bounds how long a statement inside RunInTx waits for a row
// lock. A waiter that times out fails with a lock_not_available error instead
// of queueing behind a stuck transaction. Zero keeps the server default.
func WithLockTimeout(d time.Duration) TxOption {
	return func(m *TxManager) { m.lockTimeout = d }
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RunInTx executes fn within a database transaction.
// Isolation level: Read Committed (PostgreSQL default). Row locks taken with
// SELECT ... FOR UPDATE inside fn serialize competing lifecycle transitions.
// On success: commits.
// On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if m.lockTimeout > 0 {
		// SET does not take bind parameters; the value is formatted from a duration.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	txCtx := withTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
