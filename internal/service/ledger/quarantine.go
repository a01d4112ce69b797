package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Quarantine moves an INGESTED record to QUARANTINED. Sealed records can never
// be quarantined.
func (s *Service) Quarantine(ctx context.Context, input QuarantineInput) (QuarantineResult, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return QuarantineResult{}, err
	}

	if err := input.Validate(); err != nil {
		return QuarantineResult{}, err
	}

	evidenceID := strings.TrimSpace(input.EvidenceID)
	reason := strings.TrimSpace(input.Reason)
	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		actor = userID
	}

	var result QuarantineResult
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rec, getErr := s.evidence.GetForUpdate(txCtx, tenantID, evidenceID)
		if getErr != nil {
			return fmt.Errorf("get evidence: %w", getErr)
		}

		if !rec.State.CanTransitionTo(domain.LedgerStateQuarantined) {
			return domain.StateConflict(rec.State)
		}

		quarantined, qErr := s.evidence.Quarantine(txCtx, tenantID, evidenceID, rec.Version, reason, actor, s.now())
		if qErr != nil {
			return fmt.Errorf("quarantine evidence: %w", qErr)
		}

		if _, auditErr := s.audit.Append(txCtx, s.newAuditEvent(tenantID, evidenceID, domain.AuditEventQuarantined, userID, map[string]any{
			"reason": reason,
			"actor":  actor,
		})); auditErr != nil {
			return fmt.Errorf("audit log: %w", auditErr)
		}

		result = QuarantineResult{
			EvidenceID:    quarantined.EvidenceID,
			State:         quarantined.State,
			Reason:        reason,
			QuarantinedBy: actor,
		}
		if quarantined.QuarantinedAt != nil {
			result.QuarantinedAt = *quarantined.QuarantinedAt
		}
		return nil
	})
	s.metrics.ObserveTransition("quarantine", outcome(err))
	if err != nil {
		return QuarantineResult{}, err
	}

	s.log.InfoContext(ctx, "evidence quarantined",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("evidence_id", evidenceID),
		slog.String("actor", actor),
	)

	return result, nil
}
