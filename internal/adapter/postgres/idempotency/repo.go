// Package idempotency implements the idempotency guard on PostgreSQL.
// Claims run on the caller's transaction, so a failed ingest rolls its claim back.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
)

// Repo stores idempotency claims in the idempotency_keys table.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new idempotency repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// An expired claim is taken over in place; an active one is left untouched
// and RETURNING yields no row.
const claimSQL = `
INSERT INTO idempotency_keys (tenant_id, idem_key, evidence_id, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, idem_key) DO UPDATE
SET evidence_id = EXCLUDED.evidence_id,
    created_at  = EXCLUDED.created_at,
    expires_at  = EXCLUDED.expires_at
WHERE idempotency_keys.expires_at <= EXCLUDED.created_at
RETURNING evidence_id`

const ownerSQL = `
SELECT evidence_id
FROM idempotency_keys
WHERE tenant_id = $1 AND idem_key = $2`

const releaseSQL = `
DELETE FROM idempotency_keys
WHERE tenant_id = $1 AND idem_key = $2 AND evidence_id = $3`

// Claim atomically binds key to evidenceID for window. When an unexpired
// claim already exists it returns that claim's evidence id and claimed=false.
func (r *Repo) Claim(ctx context.Context, tenantID, key, evidenceID string, window time.Duration, now time.Time) (string, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	now = now.UTC()

	rows, err := q.Query(ctx, claimSQL, tenantID, key, evidenceID, now, now.Add(window))
	if err != nil {
		return "", false, postgres.MapError(err, "idempotency_key", key)
	}
	var owner string
	claimed := false
	for rows.Next() {
		if err := rows.Scan(&owner); err != nil {
			rows.Close()
			return "", false, postgres.MapError(err, "idempotency_key", key)
		}
		claimed = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", false, postgres.MapError(err, "idempotency_key", key)
	}
	if claimed {
		return owner, true, nil
	}

	if err := q.QueryRow(ctx, ownerSQL, tenantID, key).Scan(&owner); err != nil {
		return "", false, postgres.MapError(err, "idempotency_key", key)
	}
	return owner, false, nil
}

// Release drops the claim if evidenceID still owns it.
func (r *Repo) Release(ctx context.Context, tenantID, key, evidenceID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := q.Exec(ctx, releaseSQL, tenantID, key, evidenceID); err != nil {
		return fmt.Errorf("release idempotency_key %s: %w", key, err)
	}
	return nil
}

// Confirm is a no-op: the claim row commits together with the record.
func (r *Repo) Confirm(context.Context, string, string, string, time.Duration) error {
	return nil
}
