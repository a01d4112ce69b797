package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// RecordEvent appends an annotation event to a record's audit trail. The
// record itself is not touched, so annotations are accepted in any state.
func (s *Service) RecordEvent(ctx context.Context, input RecordEventInput) (domain.AuditEvent, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return domain.AuditEvent{}, err
	}

	if err := input.Validate(); err != nil {
		return domain.AuditEvent{}, err
	}

	evidenceID := strings.TrimSpace(input.EvidenceID)

	var event domain.AuditEvent
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, getErr := s.evidence.GetByEvidenceID(txCtx, tenantID, evidenceID); getErr != nil {
			return fmt.Errorf("get evidence: %w", getErr)
		}

		var appendErr error
		event, appendErr = s.audit.Append(txCtx, s.newAuditEvent(tenantID, evidenceID, input.EventType, userID, input.Metadata))
		if appendErr != nil {
			return fmt.Errorf("audit log: %w", appendErr)
		}
		return nil
	})
	if err != nil {
		return domain.AuditEvent{}, err
	}

	s.log.InfoContext(ctx, "evidence event recorded",
		slog.String("tenant_id", tenantID),
		slog.String("evidence_id", evidenceID),
		slog.String("event_type", string(input.EventType)),
	)

	return event, nil
}
