package ledger

import (
	"strings"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// IngestInput is a submission to the ledger.
type IngestInput struct {
	Method              domain.IngestionMethod
	SourceSystem        string
	DatasetType         string
	DeclaredScope       string
	DeclaredIntent      string
	PurposeTags         []domain.PurposeTag
	PersonalDataPresent bool
	RetentionPolicy     domain.RetentionPolicy
	Payload             []byte
	MethodFields        map[string]string
	ExternalReferenceID string
	Files               []domain.FileAttachment

	// Origin is CLIENT unless a test harness marks the submission as a fixture.
	Origin domain.Origin
}

// fields merges the top-level external reference into the method fields.
func (i IngestInput) fields() map[string]string {
	out := make(map[string]string, len(i.MethodFields)+1)
	for k, v := range i.MethodFields {
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if ref := strings.TrimSpace(i.ExternalReferenceID); ref != "" && out[domain.FieldExternalReferenceID] == "" {
		out[domain.FieldExternalReferenceID] = ref
	}
	return out
}

// UpdateInput carries the fields a caller wants to change.
// Values are strings or nil (clear). Fields are checked only after the
// record's state, so a sealed record rejects every update the same way.
type UpdateInput struct {
	EvidenceID string
	Fields     map[string]any
}

// QuarantineInput holds the parameters for quarantining a record.
type QuarantineInput struct {
	EvidenceID string
	Reason     string
	// Actor defaults to the calling user.
	Actor string
}

// Validate checks all fields and collects all errors.
func (i QuarantineInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.EvidenceID) == "" {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "required"})
	}
	reason := strings.TrimSpace(i.Reason)
	if reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "required"})
	}
	if len(reason) > 2000 {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "max 2000 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RecordEventInput appends an annotation event to a record's audit trail.
type RecordEventInput struct {
	EvidenceID string
	EventType  domain.AuditEventType
	Metadata   map[string]any
}

// Validate checks all fields and collects all errors.
func (i RecordEventInput) Validate() error {
	var errs []domain.FieldError

	if strings.TrimSpace(i.EvidenceID) == "" {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "required"})
	}
	if !i.EventType.IsAnnotation() {
		errs = append(errs, domain.FieldError{Field: "event_type", Message: "must be SUPPLIER_NON_RESPONSE or PRECURSOR_ASSUMPTION"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ListInput filters a tenant's records.
type ListInput struct {
	States             []domain.LedgerState
	ExcludeQuarantined bool
	Method             *domain.IngestionMethod
	PurposeTag         *domain.PurposeTag
	IngestedFrom       *time.Time
	IngestedTo         *time.Time
	Limit              int
	Offset             int
}

// Validate checks all fields and collects all errors.
func (i ListInput) Validate() error {
	var errs []domain.FieldError

	for _, s := range i.States {
		if !s.IsValid() {
			errs = append(errs, domain.FieldError{Field: "state", Message: "unknown ledger state " + string(s)})
		}
	}
	if i.Method != nil && !i.Method.IsValid() {
		errs = append(errs, domain.FieldError{Field: "method", Message: "unknown ingestion method"})
	}
	if i.PurposeTag != nil && !i.PurposeTag.IsValid() {
		errs = append(errs, domain.FieldError{Field: "purpose_tag", Message: "unknown purpose tag"})
	}
	if i.IngestedFrom != nil && i.IngestedTo != nil && !i.IngestedTo.After(*i.IngestedFrom) {
		errs = append(errs, domain.FieldError{Field: "ingested_to", Message: "must be after ingested_from"})
	}
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be >= 0"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be >= 0"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func (i ListInput) filter() domain.EvidenceFilter {
	f := domain.EvidenceFilter{
		States:             i.States,
		ExcludeQuarantined: i.ExcludeQuarantined,
		Method:             i.Method,
		PurposeTag:         i.PurposeTag,
		IngestedFrom:       i.IngestedFrom,
		IngestedTo:         i.IngestedTo,
		Limit:              i.Limit,
		Offset:             i.Offset,
	}
	f.Normalize()
	return f
}

// FixtureInput describes a record written by the test harness. Fixtures skip
// the ingestion validator; only the shape the store needs is checked.
type FixtureInput struct {
	// EvidenceID is generated when empty.
	EvidenceID          string
	Method              domain.IngestionMethod
	SourceSystem        string
	DatasetType         string
	DeclaredScope       string
	DeclaredIntent      string
	PurposeTags         []domain.PurposeTag
	RetentionPolicy     domain.RetentionPolicy
	Payload             []byte
	MethodFields        map[string]string
	ExternalReferenceID string
}

// Validate checks all fields and collects all errors.
func (i FixtureInput) Validate() error {
	var errs []domain.FieldError

	if !i.Method.IsValid() {
		errs = append(errs, domain.FieldError{Field: "ingestion_method", Message: "unknown ingestion method"})
	}
	if strings.TrimSpace(i.DatasetType) == "" {
		errs = append(errs, domain.FieldError{Field: "dataset_type", Message: "required"})
	}
	if len(i.EvidenceID) > 200 {
		errs = append(errs, domain.FieldError{Field: "evidence_id", Message: "max 200 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
