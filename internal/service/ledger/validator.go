package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/evidencehash"
	"github.com/emissioncoresupport/evidence-ledger/internal/policy"
)

// submission is an ingest request that passed validation.
type submission struct {
	policy       policy.Policy
	origin       domain.Origin
	sourceSystem string
	datasetType  string
	fields       map[string]string
	payload      []byte
	metadata     domain.DeclaredMetadata
}

// idempotencyKey returns the deduplication key, or "" when the method has none.
func (s submission) idempotencyKey() string {
	if !s.policy.UsesIdempotencyKey() {
		return ""
	}
	return s.fields[s.policy.IdempotencyKeyField]
}

// validate runs the ingestion checks in order and stops at the first
// rejection. Each step maps to exactly one error code.
func (s *Service) validate(in IngestInput) (submission, error) {
	origin := in.Origin
	if origin == "" {
		origin = domain.OriginClient
	}
	if !origin.IsValid() {
		return submission{}, domain.NewValidationError("origin", "unknown origin")
	}
	if origin == domain.OriginTestFixture && !s.DataMode().AllowsFixtures() {
		return submission{}, domain.NewLedgerError(domain.CodeTestFixtureNotAllowed,
			fmt.Sprintf("test fixtures are not accepted in %s mode", s.DataMode()))
	}

	p, ok := s.policies.Lookup(in.Method)
	if !ok {
		return submission{}, missingMetadata("ingestion_method", "unknown ingestion method")
	}

	fields := in.fields()

	// 1. Structural completeness.
	if err := checkStructure(in, p, fields); err != nil {
		return submission{}, err
	}

	// 2. Source-system rule.
	sourceSystem, ok := p.SourceSystem.Resolve(in.SourceSystem)
	if !ok {
		return submission{}, domain.NewLedgerError(domain.CodeMissingRequiredMetadata,
			fmt.Sprintf("source_system %q is not accepted for %s", strings.TrimSpace(in.SourceSystem), p.Method)).
			With("field", "source_system").
			With("reason", "source_system_mismatch")
	}

	// 3. Payload rule.
	if len(in.Payload) > 0 && !p.ClientPayloadAllowed {
		return submission{}, domain.NewLedgerError(domain.CodeClientPayloadNotAllowed,
			fmt.Sprintf("%s content is produced server-side; payload must be omitted", p.Method))
	}
	if len(in.Payload) == 0 && !p.EmptyPayloadAllowed {
		return submission{}, domain.NewLedgerError(domain.CodeMissingEvidencePayload,
			fmt.Sprintf("%s requires a non-empty payload", p.Method))
	}
	if limit := s.cfg.MaxPayloadBytes; limit > 0 && len(in.Payload) > limit {
		return submission{}, domain.NewValidationError("payload", fmt.Sprintf("exceeds %d bytes", limit))
	}

	// 4. File rule.
	if len(in.Files) > 0 && !p.FilesAllowed {
		return submission{}, domain.NewLedgerError(domain.CodeMethodDisallowsFile,
			fmt.Sprintf("%s does not accept file attachments", p.Method))
	}

	datasetType := strings.TrimSpace(in.DatasetType)

	payload := in.Payload
	if in.Method == domain.MethodERPAPI {
		var err error
		payload, err = snapshotPayload(sourceSystem, fields[domain.FieldSnapshotDatetimeUTC], datasetType)
		if err != nil {
			return submission{}, err
		}
	}

	return submission{
		policy:       p,
		origin:       origin,
		sourceSystem: sourceSystem,
		datasetType:  datasetType,
		fields:       fields,
		payload:      payload,
		metadata: domain.DeclaredMetadata{
			IngestionMethod:     p.Method,
			SourceSystem:        sourceSystem,
			DatasetType:         datasetType,
			DeclaredScope:       strings.TrimSpace(in.DeclaredScope),
			DeclaredIntent:      strings.TrimSpace(in.DeclaredIntent),
			PurposeTags:         in.PurposeTags,
			PersonalDataPresent: in.PersonalDataPresent,
			RetentionPolicy:     in.RetentionPolicy,
			ExternalReferenceID: fields[domain.FieldExternalReferenceID],
			MethodFields:        fields,
			Files:               in.Files,
		},
	}, nil
}

func checkStructure(in IngestInput, p policy.Policy, fields map[string]string) error {
	if strings.TrimSpace(in.DatasetType) == "" {
		return missingMetadata("dataset_type", "dataset_type is required")
	}

	seen := make(map[domain.PurposeTag]struct{}, len(in.PurposeTags))
	for _, tag := range in.PurposeTags {
		if !tag.IsValid() {
			return missingMetadata("purpose_tags", fmt.Sprintf("unknown purpose tag %q", tag))
		}
		if _, dup := seen[tag]; dup {
			return missingMetadata("purpose_tags", fmt.Sprintf("duplicate purpose tag %q", tag))
		}
		seen[tag] = struct{}{}
	}

	if !in.RetentionPolicy.IsValid() {
		return missingMetadata("retention_policy", "retention_policy is missing or unknown")
	}

	if missing := p.MissingFields(fields); len(missing) > 0 {
		return domain.NewLedgerError(domain.CodeMissingRequiredMetadata,
			fmt.Sprintf("%s requires %s", p.Method, strings.Join(missing, ", "))).
			With("missing_fields", strings.Join(missing, ","))
	}

	if raw, ok := fields[domain.FieldSnapshotDatetimeUTC]; ok && raw != "" {
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return missingMetadata(domain.FieldSnapshotDatetimeUTC, "snapshot_datetime_utc must be an RFC 3339 timestamp")
		}
	}

	for i, f := range in.Files {
		if strings.TrimSpace(f.Name) == "" || f.SizeBytes < 0 {
			return missingMetadata(fmt.Sprintf("files[%d]", i), "file name is required and size must be >= 0")
		}
		if f.SHA256 != "" && !evidencehash.IsDigest(f.SHA256) {
			return missingMetadata(fmt.Sprintf("files[%d].sha256", i), "sha256 must be a lowercase hex digest")
		}
	}

	return nil
}

// snapshotPayload builds the server-side ERP_API payload from the declared snapshot.
func snapshotPayload(sourceSystem, snapshot, datasetType string) ([]byte, error) {
	at, err := time.Parse(time.RFC3339, snapshot)
	if err != nil {
		return nil, missingMetadata(domain.FieldSnapshotDatetimeUTC, "snapshot_datetime_utc must be an RFC 3339 timestamp")
	}

	payload, err := evidencehash.CanonicalJSON(map[string]string{
		"source_system":         sourceSystem,
		"snapshot_datetime_utc": at.UTC().Format(time.RFC3339),
		"dataset_type":          datasetType,
	})
	if err != nil {
		return nil, fmt.Errorf("build snapshot payload: %w", err)
	}
	return payload, nil
}

func missingMetadata(field, message string) *domain.LedgerError {
	return domain.NewLedgerError(domain.CodeMissingRequiredMetadata, message).With("field", field)
}

// validTags reports whether tags form a non-empty set of known purposes.
func validTags(tags []domain.PurposeTag) bool {
	if len(tags) == 0 {
		return false
	}
	for i, tag := range tags {
		if !tag.IsValid() || slices.Contains(tags[:i], tag) {
			return false
		}
	}
	return true
}
