package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// PostgreSQL error codes the adapters react to.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeRaiseException       = "P0001"
	CodeLockNotAvailable     = "55P03"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// pgCodeErrors maps SQLSTATE codes onto domain sentinels.
// P0001 is raised by the append-only triggers on sealed rows and audit events.
// The lock and serialization codes mean a concurrent transaction won the row.
var pgCodeErrors = map[string]error{
	CodeUniqueViolation:      domain.ErrAlreadyExists,
	CodeForeignKeyViolation:  domain.ErrNotFound,
	CodeCheckViolation:       domain.ErrValidation,
	CodeRaiseException:       domain.ErrForbidden,
	CodeLockNotAvailable:     domain.ErrConflict,
	CodeSerializationFailure: domain.ErrConflict,
	CodeDeadlockDetected:     domain.ErrConflict,
}

// MapError converts pgx/pgconn errors on entity id into domain errors.
// Context errors are wrapped but keep their identity.
func MapError(err error, entity string, id string) error {
	if err == nil {
		return nil
	}

	wrap := func(cause error) error { return fmt.Errorf("%s %s: %w", entity, id, cause) }

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return wrap(err)
	case errors.Is(err, pgx.ErrNoRows):
		return wrap(domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgCodeErrors[pgErr.Code]; ok {
			return wrap(sentinel)
		}
	}

	return wrap(err)
}
