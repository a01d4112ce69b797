package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

const (
	fieldDisplayName = "display_name"
	fieldReviewNotes = "review_notes"

	maxAnnotationLen = 4000
)

// immutableFields are record fields fixed at ingestion. Naming one in an
// update is a state conflict, not a validation error.
var immutableFields = []string{
	"record_id", "evidence_id", "tenant_id", "ledger_state", "origin",
	"ingestion_method", "dataset_type", "source_system",
	"payload", "payload_bytes", "payload_sha256", "payload_hash_sha256",
	"metadata_sha256", "metadata_hash_sha256", "metadata_canonical_json", "declared_metadata",
	"declared_scope", "declared_intent", "purpose_tags", "personal_data_present",
	"retention_policy", "retention_ends_at", "retention_ends_at_utc",
	"external_reference_id", "method_specific_fields", "files",
	"ingested_at", "ingestion_timestamp_utc", "sealed_at", "sealed_at_utc",
	"quarantine_reason", "quarantined_at", "quarantine_created_at_utc", "quarantined_by",
	"created_by", "created_by_user_id", "version",
}

// Update changes the working annotations of an INGESTED record. A SEALED
// record rejects every update with SEALED_IMMUTABLE, whoever the caller is.
func (s *Service) Update(ctx context.Context, input UpdateInput) (domain.EvidenceRecord, error) {
	tenantID, userID, err := caller(ctx)
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	evidenceID := strings.TrimSpace(input.EvidenceID)
	if evidenceID == "" {
		return domain.EvidenceRecord{}, domain.NewValidationError("evidence_id", "required")
	}

	var updated domain.EvidenceRecord
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		old, getErr := s.evidence.GetForUpdate(txCtx, tenantID, evidenceID)
		if getErr != nil {
			return fmt.Errorf("get evidence: %w", getErr)
		}

		if old.State != domain.LedgerStateIngested {
			return domain.StateConflict(old.State)
		}

		params, parseErr := parseUpdateFields(input.Fields)
		if parseErr != nil {
			return parseErr
		}

		displayName := old.DisplayName
		if params.DisplayName != nil {
			displayName = clearable(*params.DisplayName)
		}
		reviewNotes := old.ReviewNotes
		if params.ReviewNotes != nil {
			reviewNotes = clearable(*params.ReviewNotes)
		}

		var updErr error
		updated, updErr = s.evidence.UpdateAnnotations(txCtx, tenantID, evidenceID, old.Version, displayName, reviewNotes)
		if updErr != nil {
			return fmt.Errorf("update evidence: %w", updErr)
		}

		if changes := buildAnnotationChanges(old, updated); len(changes) > 0 {
			if _, auditErr := s.audit.Append(txCtx, s.newAuditEvent(tenantID, evidenceID, domain.AuditEventUpdated, userID, changes)); auditErr != nil {
				return fmt.Errorf("audit log: %w", auditErr)
			}
		}

		return nil
	})
	s.metrics.ObserveTransition("update", outcome(err))
	if err != nil {
		return domain.EvidenceRecord{}, err
	}

	s.log.InfoContext(ctx, "evidence updated",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
		slog.String("evidence_id", evidenceID),
	)

	return updated, nil
}

// parseUpdateFields maps the requested fields onto annotation params.
// nil = don't change; ptr("") = clear.
func parseUpdateFields(fields map[string]any) (domain.EvidenceUpdateParams, error) {
	var params domain.EvidenceUpdateParams

	if len(fields) == 0 {
		return params, domain.NewValidationError("fields", "at least one field must be provided")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if slices.Contains(immutableFields, name) {
			return params, domain.NewLedgerError(domain.CodeImmutableField,
				fmt.Sprintf("%s is fixed at ingestion and cannot be changed", name)).With("field", name)
		}
	}

	var errs []domain.FieldError
	for _, name := range names {
		var target **string
		switch name {
		case fieldDisplayName:
			target = &params.DisplayName
		case fieldReviewNotes:
			target = &params.ReviewNotes
		default:
			errs = append(errs, domain.FieldError{Field: name, Message: "unknown field"})
			continue
		}

		switch v := fields[name].(type) {
		case nil:
			*target = ptr("")
		case string:
			v = strings.TrimSpace(v)
			if len(v) > maxAnnotationLen {
				errs = append(errs, domain.FieldError{Field: name, Message: fmt.Sprintf("max %d characters", maxAnnotationLen)})
				continue
			}
			*target = &v
		default:
			errs = append(errs, domain.FieldError{Field: name, Message: "must be a string or null"})
		}
	}

	if len(errs) > 0 {
		return params, domain.NewValidationErrors(errs)
	}
	return params, nil
}

// buildAnnotationChanges returns only changed fields for audit.
func buildAnnotationChanges(old, updated domain.EvidenceRecord) map[string]any {
	changes := make(map[string]any)
	if deref(old.DisplayName) != deref(updated.DisplayName) {
		changes[fieldDisplayName] = map[string]any{"old": old.DisplayName, "new": updated.DisplayName}
	}
	if deref(old.ReviewNotes) != deref(updated.ReviewNotes) {
		changes[fieldReviewNotes] = map[string]any{"old": old.ReviewNotes, "new": updated.ReviewNotes}
	}
	return changes
}

// clearable turns an empty value into NULL.
func clearable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func ptr[T any](v T) *T { return &v }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
