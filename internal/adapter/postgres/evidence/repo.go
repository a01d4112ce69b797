// Package evidence implements the evidence record repository using PostgreSQL.
// Fixed-shape queries use raw SQL; list/count filters are built with squirrel.
// Every query is scoped by tenant_id.
package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/emissioncoresupport/evidence-ledger/internal/adapter/postgres"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

const entity = "evidence"

// Repo provides evidence record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new evidence repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const columns = `record_id, tenant_id, evidence_id, ledger_state, origin, ingestion_method,
       dataset_type, source_system, payload, payload_sha256, metadata_sha256,
       declared_metadata, purpose_tags, retention_policy, retention_ends_at,
       external_reference_id, ingested_at, sealed_at, quarantine_reason,
       quarantined_at, quarantined_by, created_by, display_name, review_notes, version`

const insertSQL = `
INSERT INTO evidence_records (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
        $17, $18, $19, $20, $21, $22, $23, $24, $25)
RETURNING ` + columns

const getSQL = `
SELECT ` + columns + `
FROM evidence_records
WHERE tenant_id = $1 AND evidence_id = $2`

const getForUpdateSQL = getSQL + `
FOR UPDATE`

const sealSQL = `
UPDATE evidence_records
SET ledger_state = 'SEALED', sealed_at = $4, version = version + 1
WHERE tenant_id = $1 AND evidence_id = $2
  AND ledger_state = 'INGESTED' AND version = $3
RETURNING ` + columns

const quarantineSQL = `
UPDATE evidence_records
SET ledger_state = 'QUARANTINED', quarantine_reason = $4, quarantined_by = $5,
    quarantined_at = $6, version = version + 1
WHERE tenant_id = $1 AND evidence_id = $2
  AND ledger_state = 'INGESTED' AND version = $3
RETURNING ` + columns

const updateAnnotationsSQL = `
UPDATE evidence_records
SET display_name = $4, review_notes = $5, version = version + 1
WHERE tenant_id = $1 AND evidence_id = $2
  AND ledger_state = 'INGESTED' AND version = $3
RETURNING ` + columns

const listSealedIDsSQL = `
SELECT evidence_id
FROM evidence_records
WHERE tenant_id = $1 AND ledger_state = 'SEALED'
ORDER BY ingested_at, evidence_id`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new record and returns it as committed.
// A duplicate (tenant_id, evidence_id) yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	row := q.QueryRow(ctx, insertSQL,
		rec.RecordID, rec.TenantID, rec.EvidenceID, string(rec.State), string(rec.Origin),
		string(rec.Method), rec.DatasetType, rec.SourceSystem, payloadOrEmpty(rec.Payload),
		rec.PayloadHash, rec.MetadataHash, string(rec.MetadataJSON), tagsToStrings(rec.PurposeTags),
		string(rec.RetentionPolicy), rec.RetentionEndsAt, rec.ExternalReferenceID, rec.IngestedAt,
		rec.SealedAt, rec.QuarantineReason, rec.QuarantinedAt, rec.QuarantinedBy, rec.CreatedBy,
		rec.DisplayName, rec.ReviewNotes, versionOrOne(rec.Version),
	)

	created, err := scanRecord(row)
	if err != nil {
		return domain.EvidenceRecord{}, postgres.MapError(err, entity, rec.EvidenceID)
	}
	return created, nil
}

// Seal moves an INGESTED record at the given version to SEALED.
// A stale version or a non-INGESTED row yields domain.ErrConflict.
func (r *Repo) Seal(ctx context.Context, tenantID, evidenceID string, version int, sealedAt time.Time) (domain.EvidenceRecord, error) {
	return r.transition(ctx, evidenceID, sealSQL, tenantID, evidenceID, version, sealedAt)
}

// Quarantine moves an INGESTED record at the given version to QUARANTINED.
func (r *Repo) Quarantine(ctx context.Context, tenantID, evidenceID string, version int, reason, actor string, at time.Time) (domain.EvidenceRecord, error) {
	return r.transition(ctx, evidenceID, quarantineSQL, tenantID, evidenceID, version, reason, actor, at)
}

// UpdateAnnotations overwrites the working annotations of an INGESTED record.
// The caller passes the full new values; nil clears a column.
func (r *Repo) UpdateAnnotations(ctx context.Context, tenantID, evidenceID string, version int, displayName, reviewNotes *string) (domain.EvidenceRecord, error) {
	return r.transition(ctx, evidenceID, updateAnnotationsSQL, tenantID, evidenceID, version, displayName, reviewNotes)
}

func (r *Repo) transition(ctx context.Context, evidenceID, sql string, args ...any) (domain.EvidenceRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if isNoRows(err) {
			return domain.EvidenceRecord{}, fmt.Errorf("%s %s: %w", entity, evidenceID, domain.ErrConflict)
		}
		return domain.EvidenceRecord{}, postgres.MapError(err, entity, evidenceID)
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByEvidenceID returns the tenant's record. Records owned by other tenants
// are reported as domain.ErrNotFound.
func (r *Repo) GetByEvidenceID(ctx context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(q.QueryRow(ctx, getSQL, tenantID, evidenceID))
	if err != nil {
		return domain.EvidenceRecord{}, postgres.MapError(err, entity, evidenceID)
	}
	return rec, nil
}

// GetForUpdate reads the record and locks its row until the surrounding
// transaction ends. Must be called inside TxManager.RunInTx.
func (r *Repo) GetForUpdate(ctx context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(q.QueryRow(ctx, getForUpdateSQL, tenantID, evidenceID))
	if err != nil {
		return domain.EvidenceRecord{}, postgres.MapError(err, entity, evidenceID)
	}
	return rec, nil
}

// List returns the tenant's records matching filter, newest first.
func (r *Repo) List(ctx context.Context, tenantID string, filter domain.EvidenceFilter) ([]domain.EvidenceRecord, error) {
	filter.Normalize()

	sql, args, err := buildListQuery(tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("build evidence list query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var records []domain.EvidenceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}

	if records == nil {
		records = []domain.EvidenceRecord{}
	}
	return records, nil
}

// Count returns how many of the tenant's records match filter. Pagination is ignored.
func (r *Repo) Count(ctx context.Context, tenantID string, filter domain.EvidenceFilter) (int, error) {
	sql, args, err := buildCountQuery(tenantID, filter)
	if err != nil {
		return 0, fmt.Errorf("build evidence count query: %w", err)
	}

	var count int
	q := postgres.QuerierFromCtx(ctx, r.pool)
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count evidence: %w", err)
	}
	return count, nil
}

// ListSealedIDs returns the ids of every SEALED record of the tenant, oldest first.
func (r *Repo) ListSealedIDs(ctx context.Context, tenantID string) ([]string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSealedIDsSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sealed evidence ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list sealed evidence ids: %w", err)
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Scanning
// ---------------------------------------------------------------------------

func scanRecord(row pgx.Row) (domain.EvidenceRecord, error) {
	var (
		rec          domain.EvidenceRecord
		state        string
		origin       string
		method       string
		metadataJSON string
		tags         []string
		retention    string
	)

	err := row.Scan(
		&rec.RecordID, &rec.TenantID, &rec.EvidenceID, &state, &origin, &method,
		&rec.DatasetType, &rec.SourceSystem, &rec.Payload, &rec.PayloadHash, &rec.MetadataHash,
		&metadataJSON, &tags, &retention, &rec.RetentionEndsAt,
		&rec.ExternalReferenceID, &rec.IngestedAt, &rec.SealedAt, &rec.QuarantineReason,
		&rec.QuarantinedAt, &rec.QuarantinedBy, &rec.CreatedBy, &rec.DisplayName, &rec.ReviewNotes,
		&rec.Version,
	)
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	rec.State = domain.LedgerState(state)
	rec.Origin = domain.Origin(origin)
	rec.Method = domain.IngestionMethod(method)
	rec.RetentionPolicy = domain.RetentionPolicy(retention)
	rec.MetadataJSON = []byte(metadataJSON)
	rec.PurposeTags = make([]domain.PurposeTag, len(tags))
	for i, t := range tags {
		rec.PurposeTags[i] = domain.PurposeTag(t)
	}
	if rec.Payload == nil {
		rec.Payload = []byte{}
	}

	decodeMetadata(&rec)

	return rec, nil
}

// decodeMetadata fills Metadata from the stored canonical bytes. Fixture rows
// may carry bytes that do not decode; the failure is kept on the record
// instead of failing the read.
func decodeMetadata(rec *domain.EvidenceRecord) {
	if len(rec.MetadataJSON) == 0 {
		return
	}
	if err := json.Unmarshal(rec.MetadataJSON, &rec.Metadata); err != nil {
		rec.Metadata = domain.DeclaredMetadata{}
		rec.MetadataDecodeErr = err.Error()
	}
}

func tagsToStrings(tags []domain.PurposeTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func payloadOrEmpty(p []byte) []byte {
	if p == nil {
		return []byte{}
	}
	return p
}

func versionOrOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
