package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/evidencehash"
	"github.com/emissioncoresupport/evidence-ledger/internal/metrics"
)

// Ingest validates a submission and ledgers it as an INGESTED record together
// with its INGESTED audit event. A resubmission of an API_PUSH reference inside
// the idempotency window returns the original record with Replayed set.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return IngestResult{}, err
	}

	sub, err := s.validate(in)
	if err != nil {
		s.metrics.ObserveIngest(string(in.Method), outcome(err))
		return IngestResult{}, err
	}

	now := s.now()
	rec, err := buildRecord(tenantID, userID, sub, now)
	if err != nil {
		return IngestResult{}, err
	}

	key := sub.idempotencyKey()
	window := s.cfg.WindowFor(rec.SourceSystem)

	var result IngestResult
	claimed := false
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if key != "" {
			owner, ok, claimErr := s.idem.Claim(txCtx, tenantID, key, rec.EvidenceID, window, now)
			if claimErr != nil {
				return fmt.Errorf("claim idempotency key: %w", claimErr)
			}
			if !ok {
				return s.replay(txCtx, tenantID, userID, key, owner, &result)
			}
			claimed = true
		}

		created, createErr := s.evidence.Create(txCtx, rec)
		if createErr != nil {
			return fmt.Errorf("create evidence: %w", createErr)
		}

		if _, auditErr := s.audit.Append(txCtx, s.newAuditEvent(tenantID, created.EvidenceID, domain.AuditEventIngested, userID, map[string]any{
			"ingestion_method": string(created.Method),
			"source_system":    created.SourceSystem,
			"origin":           string(created.Origin),
			"payload_sha256":   created.PayloadHash,
			"metadata_sha256":  created.MetadataHash,
		})); auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}

		result = ingestResultFrom(created, false)
		return nil
	})
	if err != nil {
		if claimed {
			// The claim may live outside the transaction; never leave it behind.
			if relErr := s.idem.Release(context.WithoutCancel(ctx), tenantID, key, rec.EvidenceID); relErr != nil {
				s.log.WarnContext(ctx, "release idempotency key",
					slog.String("tenant_id", tenantID),
					slog.String("evidence_id", rec.EvidenceID),
					slog.String("error", relErr.Error()),
				)
			}
		}
		s.metrics.ObserveIngest(string(sub.policy.Method), outcome(err))
		return IngestResult{}, err
	}

	if claimed {
		if confErr := s.idem.Confirm(ctx, tenantID, key, rec.EvidenceID, window); confErr != nil {
			s.log.WarnContext(ctx, "confirm idempotency key",
				slog.String("tenant_id", tenantID),
				slog.String("evidence_id", rec.EvidenceID),
				slog.String("error", confErr.Error()),
			)
		}
	}

	if result.Replayed {
		s.metrics.ObserveIngest(string(sub.policy.Method), metrics.OutcomeReplayed)
		s.log.InfoContext(ctx, "evidence submission replayed",
			slog.String("tenant_id", tenantID),
			slog.String("evidence_id", result.EvidenceID),
		)
		return result, nil
	}

	s.metrics.ObserveIngest(string(sub.policy.Method), metrics.OutcomeAccepted)
	s.log.InfoContext(ctx, "evidence ingested",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("evidence_id", result.EvidenceID),
		slog.String("method", string(sub.policy.Method)),
	)

	return result, nil
}

// replay resolves the record owning an active idempotency claim and records
// the resubmission on its audit trail.
func (s *Service) replay(ctx context.Context, tenantID, userID, key, owner string, result *IngestResult) error {
	prior, err := s.evidence.GetByEvidenceID(ctx, tenantID, owner)
	if errors.Is(err, domain.ErrNotFound) {
		// The owner has claimed the key but not committed yet.
		return fmt.Errorf("submission %q is still in progress: %w", key, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("get idempotency owner: %w", err)
	}

	if _, err := s.audit.Append(ctx, s.newAuditEvent(tenantID, prior.EvidenceID, domain.AuditEventIdempotentReplay, userID, map[string]any{
		domain.FieldExternalReferenceID: key,
	})); err != nil {
		return fmt.Errorf("audit log: %w", err)
	}

	*result = ingestResultFrom(prior, true)
	return nil
}

// buildRecord computes the digests and retention of a validated submission.
// The digests are taken over exactly the bytes that will be stored.
func buildRecord(tenantID, userID string, sub submission, now time.Time) (domain.EvidenceRecord, error) {
	metaHash, metaJSON, err := evidencehash.MetadataSHA256(sub.metadata)
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("hash metadata: %w", err)
	}

	endsAt, ok := sub.metadata.RetentionPolicy.EndsAt(now)
	if !ok {
		return domain.EvidenceRecord{}, missingMetadata("retention_policy", "retention_policy is missing or unknown")
	}

	payload := sub.payload
	if payload == nil {
		payload = []byte{}
	}

	rec := domain.EvidenceRecord{
		RecordID:        uuid.New(),
		EvidenceID:      newEvidenceID(),
		TenantID:        tenantID,
		State:           domain.LedgerStateIngested,
		Origin:          sub.origin,
		Method:          sub.policy.Method,
		DatasetType:     sub.datasetType,
		SourceSystem:    sub.sourceSystem,
		Payload:         payload,
		PayloadHash:     evidencehash.PayloadSHA256(payload),
		MetadataHash:    metaHash,
		MetadataJSON:    metaJSON,
		Metadata:        sub.metadata,
		PurposeTags:     sub.metadata.PurposeTags,
		RetentionPolicy: sub.metadata.RetentionPolicy,
		RetentionEndsAt: &endsAt,
		IngestedAt:      now,
		CreatedBy:       userID,
		Version:         1,
	}
	if ref := sub.metadata.ExternalReferenceID; ref != "" {
		rec.ExternalReferenceID = &ref
	}
	return rec, nil
}
