package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Seal moves an INGESTED record to SEALED. The row is locked for the duration
// of the transaction, so of two concurrent seals exactly one succeeds and the
// other observes SEALED.
func (s *Service) Seal(ctx context.Context, evidenceID string) (SealResult, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return SealResult{}, err
	}

	evidenceID = strings.TrimSpace(evidenceID)
	if evidenceID == "" {
		return SealResult{}, domain.NewValidationError("evidence_id", "required")
	}

	var result SealResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, getErr := s.evidence.GetForUpdate(txCtx, tenantID, evidenceID)
		if getErr != nil {
			return fmt.Errorf("get evidence: %w", getErr)
		}

		if !rec.State.CanTransitionTo(domain.LedgerStateSealed) {
			return domain.StateConflict(rec.State)
		}
		if err := s.checkSealable(rec); err != nil {
			return err
		}

		sealed, sealErr := s.evidence.Seal(txCtx, tenantID, evidenceID, rec.Version, s.now())
		if sealErr != nil {
			return fmt.Errorf("seal evidence: %w", sealErr)
		}

		if _, auditErr := s.audit.Append(txCtx, s.newAuditEvent(tenantID, evidenceID, domain.AuditEventSealed, userID, map[string]any{
			"payload_sha256":  sealed.PayloadHash,
			"metadata_sha256": sealed.MetadataHash,
		})); auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}

		count, countErr := s.audit.CountByObject(txCtx, tenantID, domain.AuditObjectEvidence, evidenceID)
		if countErr != nil {
			return fmt.Errorf("count audit events: %w", countErr)
		}

		result = SealResult{
			EvidenceID:      sealed.EvidenceID,
			State:           sealed.State,
			AuditEventCount: count,
		}
		if sealed.SealedAt != nil {
			result.SealedAt = *sealed.SealedAt
		}
		return nil
	})
	s.metrics.ObserveTransition("seal", outcome(err))
	if err != nil {
		return SealResult{}, err
	}

	s.log.InfoContext(ctx, "evidence sealed",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("evidence_id", evidenceID),
	)

	return result, nil
}

// checkSealable repeats the completeness checks that must hold at seal time,
// catching records that entered the ledger without passing the validator.
func (s *Service) checkSealable(rec domain.EvidenceRecord) error {
	p, known := s.policies.Lookup(rec.Method)
	if (!known || p.PayloadRequiredAtSeal) && len(rec.Payload) == 0 {
		return domain.NewLedgerError(domain.CodeMissingEvidencePayload,
			fmt.Sprintf("%s evidence cannot be sealed without a payload", rec.Method))
	}
	if !validTags(rec.PurposeTags) {
		return missingMetadata("purpose_tags", "purpose_tags must be a non-empty set before sealing")
	}
	return nil
}
