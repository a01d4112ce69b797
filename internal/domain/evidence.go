package domain

import (
	"time"

	"github.com/google/uuid"
)

// Method-specific field names referenced by the policy table.
const (
	FieldFileName                = "file_name"
	FieldExportBatchID           = "export_batch_id"
	FieldSnapshotDatetimeUTC     = "snapshot_datetime_utc"
	FieldSupplierPortalRequestID = "supplier_portal_request_id"
	FieldExternalReferenceID     = "external_reference_id"
	FieldEntryNotes              = "entry_notes"
)

// FileAttachment describes a file declared alongside a submission.
// The bytes live in external storage; only the descriptor is ledgered.
type FileAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	SHA256      string `json:"sha256,omitempty"`
}

// DeclaredMetadata is the caller-declared metadata. Its canonical JSON form is
// stored verbatim and hashed once at ingestion.
type DeclaredMetadata struct {
	IngestionMethod     IngestionMethod   `json:"ingestion_method"`
	SourceSystem        string            `json:"source_system"`
	DatasetType         string            `json:"dataset_type"`
	DeclaredScope       string            `json:"declared_scope"`
	DeclaredIntent      string            `json:"declared_intent"`
	PurposeTags         []PurposeTag      `json:"purpose_tags"`
	PersonalDataPresent bool              `json:"personal_data_present"`
	RetentionPolicy     RetentionPolicy   `json:"retention_policy"`
	ExternalReferenceID string            `json:"external_reference_id,omitempty"`
	MethodFields        map[string]string `json:"method_specific_fields,omitempty"`
	Files               []FileAttachment  `json:"files,omitempty"`
}

// EvidenceRecord is a single ledgered assertion of fact with provenance metadata.
type EvidenceRecord struct {
	RecordID   uuid.UUID
	EvidenceID string
	TenantID   string
	State      LedgerState
	Origin     Origin

	Method       IngestionMethod
	DatasetType  string
	SourceSystem string

	Payload      []byte
	PayloadHash  string
	MetadataHash string
	MetadataJSON []byte
	Metadata     DeclaredMetadata

	// MetadataDecodeErr is set when MetadataJSON does not decode into Metadata.
	// MetadataJSON stays authoritative either way.
	MetadataDecodeErr string

	PurposeTags     []PurposeTag
	RetentionPolicy RetentionPolicy
	RetentionEndsAt *time.Time

	ExternalReferenceID *string

	IngestedAt       time.Time
	SealedAt         *time.Time
	QuarantineReason *string
	QuarantinedAt    *time.Time
	QuarantinedBy    *string
	CreatedBy        string

	// Working annotations, outside the hashed metadata. Editable while INGESTED.
	DisplayName *string
	ReviewNotes *string

	Version int
}

// IsSealed reports whether the record is frozen.
func (r *EvidenceRecord) IsSealed() bool { return r.State == LedgerStateSealed }

// EvidenceUpdateParams holds the working annotations that may change on an INGESTED record.
// nil = don't change; ptr("") = clear.
type EvidenceUpdateParams struct {
	DisplayName *string
	ReviewNotes *string
}

// EvidenceFilter scopes list and count queries. The tenant is always passed separately.
type EvidenceFilter struct {
	States             []LedgerState
	ExcludeQuarantined bool
	Method             *IngestionMethod
	PurposeTag         *PurposeTag
	IngestedFrom       *time.Time
	IngestedTo         *time.Time
	Limit              int
	Offset             int
}
