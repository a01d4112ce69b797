package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/evidencehash"
)

// ImportFixtures writes test-harness records directly as INGESTED with origin
// TEST_FIXTURE. It is refused outright in LIVE mode. All fixtures are written
// in one transaction.
func (s *Service) ImportFixtures(ctx context.Context, fixtures []FixtureInput) ([]IngestResult, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	if !s.DataMode().AllowsFixtures() {
		return nil, domain.NewLedgerError(domain.CodeTestFixtureNotAllowed,
			fmt.Sprintf("test fixtures are not accepted in %s mode", s.DataMode()))
	}

	if len(fixtures) == 0 {
		return nil, domain.NewValidationError("fixtures", "at least one fixture must be provided")
	}
	for i, f := range fixtures {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}

	results := make([]IngestResult, 0, len(fixtures))
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, f := range fixtures {
			rec, buildErr := s.buildFixture(tenantID, userID, f)
			if buildErr != nil {
				return buildErr
			}

			created, createErr := s.evidence.Create(txCtx, rec)
			if createErr != nil {
				return fmt.Errorf("create fixture: %w", createErr)
			}

			if _, auditErr := s.audit.Append(txCtx, s.newAuditEvent(tenantID, created.EvidenceID, domain.AuditEventIngested, userID, map[string]any{
				"ingestion_method": string(created.Method),
				"origin":           string(created.Origin),
				"data_mode":        string(s.DataMode()),
			})); auditErr != nil {
				return fmt.Errorf("audit log: %w", auditErr)
			}

			results = append(results, ingestResultFrom(created, false))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "test fixtures imported",
		slog.String("tenant_id", tenantID),
		slog.String("data_mode", string(s.DataMode())),
		slog.Int("count", len(results)),
	)

	return results, nil
}

func (s *Service) buildFixture(tenantID, userID string, f FixtureInput) (domain.EvidenceRecord, error) {
	now := s.now()

	meta := domain.DeclaredMetadata{
		IngestionMethod:     f.Method,
		SourceSystem:        strings.TrimSpace(f.SourceSystem),
		DatasetType:         strings.TrimSpace(f.DatasetType),
		DeclaredScope:       f.DeclaredScope,
		DeclaredIntent:      f.DeclaredIntent,
		PurposeTags:         f.PurposeTags,
		RetentionPolicy:     f.RetentionPolicy,
		ExternalReferenceID: f.ExternalReferenceID,
		MethodFields:        f.MethodFields,
	}
	metaHash, metaJSON, err := evidencehash.MetadataSHA256(meta)
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("hash metadata: %w", err)
	}

	payload := f.Payload
	if payload == nil {
		payload = []byte{}
	}

	evidenceID := strings.TrimSpace(f.EvidenceID)
	if evidenceID == "" {
		evidenceID = newEvidenceID()
	}

	rec := domain.EvidenceRecord{
		RecordID:        uuid.New(),
		EvidenceID:      evidenceID,
		TenantID:        tenantID,
		State:           domain.LedgerStateIngested,
		Origin:          domain.OriginTestFixture,
		Method:          f.Method,
		DatasetType:     meta.DatasetType,
		SourceSystem:    meta.SourceSystem,
		Payload:         payload,
		PayloadHash:     evidencehash.PayloadSHA256(payload),
		MetadataHash:    metaHash,
		MetadataJSON:    metaJSON,
		Metadata:        meta,
		PurposeTags:     f.PurposeTags,
		RetentionPolicy: f.RetentionPolicy,
		IngestedAt:      now,
		CreatedBy:       userID,
		Version:         1,
	}
	// An unknown policy leaves retention unset; the gate reports it.
	if endsAt, ok := f.RetentionPolicy.EndsAt(now); ok {
		rec.RetentionEndsAt = &endsAt
	}
	if f.ExternalReferenceID != "" {
		ref := f.ExternalReferenceID
		rec.ExternalReferenceID = &ref
	}
	return rec, nil
}
