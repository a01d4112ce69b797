// Package audit implements the audit trail repository using PostgreSQL.
// It provides append-only operations; no UPDATE or DELETE statement exists
// and the schema rejects both.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Repo provides audit event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const insertSQL = `
INSERT INTO audit_events (id, tenant_id, object_type, object_id, event_type, actor, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, tenant_id, object_type, object_id, event_type, actor, metadata, created_at`

const listByObjectSQL = `
SELECT id, tenant_id, object_type, object_id, event_type, actor, metadata, created_at
FROM audit_events
WHERE tenant_id = $1 AND object_type = $2 AND object_id = $3
ORDER BY created_at, id`

const countByObjectSQL = `
SELECT COUNT(*)
FROM audit_events
WHERE tenant_id = $1 AND object_type = $2 AND object_id = $3`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Append inserts a new audit event and returns it as persisted.
func (r *Repo) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("audit_event marshal metadata: %w", err)
	}

	row := q.QueryRow(ctx, insertSQL,
		event.ID, event.TenantID, event.ObjectType, event.ObjectID,
		string(event.EventType), event.Actor, metadataJSON, event.CreatedAt,
	)

	created, err := scanEvent(row)
	if err != nil {
		return domain.AuditEvent{}, postgres.MapError(err, "audit_event", event.ID.String())
	}
	return created, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListByObject returns the tenant's audit events for one object, oldest first.
func (r *Repo) ListByObject(ctx context.Context, tenantID, objectType, objectID string) ([]domain.AuditEvent, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByObjectSQL, tenantID, objectType, objectID)
	if err != nil {
		return nil, fmt.Errorf("list audit_events by object: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit_events by object: %w", err)
	}

	return events, nil
}

// CountByObject returns how many audit events the tenant has for one object.
func (r *Repo) CountByObject(ctx context.Context, tenantID, objectType, objectID string) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var count int
	if err := q.QueryRow(ctx, countByObjectSQL, tenantID, objectType, objectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count audit_events by object: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanEvent(row pgx.Row) (domain.AuditEvent, error) {
	var (
		ev        domain.AuditEvent
		eventType string
		metadata  []byte
	)

	if err := row.Scan(&ev.ID, &ev.TenantID, &ev.ObjectType, &ev.ObjectID,
		&eventType, &ev.Actor, &metadata, &ev.CreatedAt); err != nil {
		return domain.AuditEvent{}, err
	}
	ev.EventType = domain.AuditEventType(eventType)

	ev.Metadata = make(map[string]any)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
			return domain.AuditEvent{}, fmt.Errorf("audit_event %s unmarshal metadata: %w", ev.ID, err)
		}
	}

	return ev, nil
}
