package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/evidencehash"
)

// UniqueTenant returns a tenant id no other test uses, so parallel tests
// never see each other's rows.
func UniqueTenant() string {
	return "tenant-" + uuid.New().String()[:8]
}

// SeedOption customizes a seeded evidence record.
type SeedOption func(*domain.EvidenceRecord)

// WithState sets the ledger state. SEALED and QUARANTINED fill the matching timestamps.
func WithState(state domain.LedgerState) SeedOption {
	return func(r *domain.EvidenceRecord) {
		now := r.IngestedAt.Add(time.Minute)
		r.State = state
		switch state {
		case domain.LedgerStateSealed:
			r.SealedAt = &now
		case domain.LedgerStateQuarantined:
			reason := "seeded"
			r.QuarantineReason = &reason
			r.QuarantinedAt = &now
			r.QuarantinedBy = &r.CreatedBy
		}
	}
}

// WithMethod sets the ingestion method.
func WithMethod(m domain.IngestionMethod) SeedOption {
	return func(r *domain.EvidenceRecord) {
		r.Method = m
		r.Metadata.IngestionMethod = m
	}
}

// WithPurposeTags sets the purpose tags.
func WithPurposeTags(tags ...domain.PurposeTag) SeedOption {
	return func(r *domain.EvidenceRecord) {
		r.PurposeTags = tags
		r.Metadata.PurposeTags = tags
	}
}

// WithPayload sets the payload bytes; the hash is recomputed.
func WithPayload(payload []byte) SeedOption {
	return func(r *domain.EvidenceRecord) {
		r.Payload = payload
	}
}

// WithIngestedAt sets the ingestion instant.
func WithIngestedAt(at time.Time) SeedOption {
	return func(r *domain.EvidenceRecord) {
		r.IngestedAt = at.UTC().Truncate(time.Microsecond)
	}
}

// BuildEvidence returns a valid INGESTED FILE_UPLOAD record for tenantID
// without touching the database.
func BuildEvidence(t *testing.T, tenantID string, opts ...SeedOption) domain.EvidenceRecord {
	t.Helper()

	suffix := uuid.New().String()[:8]
	r := domain.EvidenceRecord{
		RecordID:     uuid.New(),
		EvidenceID:   "EV-" + uuid.New().String(),
		TenantID:     tenantID,
		State:        domain.LedgerStateIngested,
		Origin:       domain.OriginClient,
		Method:       domain.MethodFileUpload,
		DatasetType:  "SUPPLIER_EMISSIONS",
		SourceSystem: "SHAREPOINT",
		Payload:      []byte("payload-" + suffix),
		PurposeTags:  []domain.PurposeTag{domain.PurposeCBAM},
		Metadata: domain.DeclaredMetadata{
			IngestionMethod: domain.MethodFileUpload,
			SourceSystem:    "SHAREPOINT",
			DatasetType:     "SUPPLIER_EMISSIONS",
			DeclaredScope:   "SITE",
			DeclaredIntent:  "ANNUAL_REPORT",
			PurposeTags:     []domain.PurposeTag{domain.PurposeCBAM},
			RetentionPolicy: domain.RetentionStandard7Years,
			MethodFields:    map[string]string{domain.FieldFileName: "emissions-" + suffix + ".csv"},
		},
		RetentionPolicy: domain.RetentionStandard7Years,
		IngestedAt:      time.Now().UTC().Truncate(time.Microsecond),
		CreatedBy:       "user-" + suffix,
		Version:         1,
	}

	for _, opt := range opts {
		opt(&r)
	}

	r.PayloadHash = evidencehash.PayloadSHA256(r.Payload)
	hash, canonical, err := evidencehash.MetadataSHA256(r.Metadata)
	if err != nil {
		t.Fatalf("BuildEvidence: hash metadata: %v", err)
	}
	r.MetadataHash = hash
	r.MetadataJSON = canonical
	if ends, ok := r.RetentionPolicy.EndsAt(r.IngestedAt); ok {
		r.RetentionEndsAt = &ends
	}

	return r
}

// SeedEvidence inserts an evidence record directly, bypassing repositories.
func SeedEvidence(t *testing.T, pool *pgxpool.Pool, tenantID string, opts ...SeedOption) domain.EvidenceRecord {
	t.Helper()

	r := BuildEvidence(t, tenantID, opts...)

	tags := make([]string, len(r.PurposeTags))
	for i, tag := range r.PurposeTags {
		tags[i] = string(tag)
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO evidence_records (
			record_id, tenant_id, evidence_id, ledger_state, origin, ingestion_method,
			dataset_type, source_system, payload, payload_sha256, metadata_sha256,
			declared_metadata, purpose_tags, retention_policy, retention_ends_at,
			ingested_at, sealed_at, quarantine_reason, quarantined_at, quarantined_by,
			created_by, version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		r.RecordID, r.TenantID, r.EvidenceID, string(r.State), string(r.Origin), string(r.Method),
		r.DatasetType, r.SourceSystem, r.Payload, r.PayloadHash, r.MetadataHash,
		string(r.MetadataJSON), tags, string(r.RetentionPolicy), r.RetentionEndsAt,
		r.IngestedAt, r.SealedAt, r.QuarantineReason, r.QuarantinedAt, r.QuarantinedBy,
		r.CreatedBy, r.Version,
	)
	if err != nil {
		t.Fatalf("SeedEvidence: insert: %v", err)
	}

	return r
}
