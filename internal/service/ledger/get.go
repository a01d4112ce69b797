package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Get returns the caller's record. Records of other tenants are NOT_FOUND.
func (s *Service) Get(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	evidenceID = strings.TrimSpace(evidenceID)
	if evidenceID == "" {
		return domain.EvidenceRecord{}, domain.NewValidationError("evidence_id", "required")
	}

	rec, err := s.evidence.GetByEvidenceID(ctx, tenantID, evidenceID)
	if err != nil {
		return domain.EvidenceRecord{}, fmt.Errorf("get evidence: %w", err)
	}
	return rec, nil
}

// History returns the record's audit trail, oldest first.
func (s *Service) History(ctx context.Context, evidenceID string) ([]domain.AuditEvent, error) {
	rec, err := s.Get(ctx, evidenceID)
	if err != nil {
		return nil, err
	}

	events, err := s.audit.ListByObject(ctx, rec.TenantID, domain.AuditObjectEvidence, rec.EvidenceID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

// List returns a page of the caller's records and the total matching count.
func (s *Service) List(ctx context.Context, input ListInput) (ListResult, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return ListResult{}, err
	}

	if err := input.Validate(); err != nil {
		return ListResult{}, err
	}

	filter := input.filter()

	records, err := s.evidence.List(ctx, tenantID, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list evidence: %w", err)
	}

	total, err := s.evidence.Count(ctx, tenantID, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count evidence: %w", err)
	}

	return ListResult{Records: records, Total: total}, nil
}

// CountValid counts the caller's records that are not QUARANTINED.
func (s *Service) CountValid(ctx context.Context) (int, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return 0, err
	}

	n, err := s.evidence.Count(ctx, tenantID, domain.EvidenceFilter{ExcludeQuarantined: true})
	if err != nil {
		return 0, fmt.Errorf("count evidence: %w", err)
	}
	return n, nil
}
