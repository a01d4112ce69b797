package rest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/compliance"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/service/ledger"
)

// evidencePayload is the submitted payload. A JSON string is taken as base64
// when it decodes as such and as literal text otherwise; any other JSON value
// is kept as its raw bytes. The policy table, not the decoder, decides whether
// a payload may be present at all.
type evidencePayload []byte

func (p *evidencePayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if raw, err := base64.StdEncoding.Strict().DecodeString(text); err == nil {
			*p = raw
			return nil
		}
		*p = evidencePayload(text)
		return nil
	}
	*p = append(evidencePayload(nil), data...)
	return nil
}

type ingestRequest struct {
	IngestionMethod     string                  `json:"ingestion_method"`
	SourceSystem        string                  `json:"source_system"`
	DatasetType         string                  `json:"dataset_type"`
	DeclaredScope       string                  `json:"declared_scope"`
	DeclaredIntent      string                  `json:"declared_intent"`
	PurposeTags         []string                `json:"purpose_tags"`
	PersonalDataPresent bool                    `json:"personal_data_present"`
	RetentionPolicy     string                  `json:"retention_policy"`
	Payload             evidencePayload         `json:"payload"`
	MethodFields        map[string]string       `json:"method_specific_fields"`
	ExternalReferenceID string                  `json:"external_reference_id"`
	Files               []domain.FileAttachment `json:"files"`
	Origin              string                  `json:"origin"`
}

func (req ingestRequest) toInput() ledger.IngestInput {
	return ledger.IngestInput{
		Method:              domain.IngestionMethod(req.IngestionMethod),
		SourceSystem:        req.SourceSystem,
		DatasetType:         req.DatasetType,
		DeclaredScope:       req.DeclaredScope,
		DeclaredIntent:      req.DeclaredIntent,
		PurposeTags:         toPurposeTags(req.PurposeTags),
		PersonalDataPresent: req.PersonalDataPresent,
		RetentionPolicy:     domain.RetentionPolicy(req.RetentionPolicy),
		Payload:             []byte(req.Payload),
		MethodFields:        req.MethodFields,
		ExternalReferenceID: req.ExternalReferenceID,
		Files:               req.Files,
		Origin:              domain.Origin(req.Origin),
	}
}

type ingestResponse struct {
	EvidenceID     string `json:"evidence_id"`
	RecordID       string `json:"record_id"`
	LedgerState    string `json:"ledger_state"`
	SourceSystem   string `json:"source_system"`
	PayloadSHA256  string `json:"payload_sha256"`
	MetadataSHA256 string `json:"metadata_sha256"`
	Replayed       bool   `json:"replayed"`
}

func toIngestResponse(res ledger.IngestResult) ingestResponse {
	return ingestResponse{
		EvidenceID:     res.EvidenceID,
		RecordID:       res.RecordID.String(),
		LedgerState:    res.State.String(),
		SourceSystem:   res.SourceSystem,
		PayloadSHA256:  res.PayloadHash,
		MetadataSHA256: res.MetadataHash,
		Replayed:       res.Replayed,
	}
}

type evidenceResponse struct {
	RecordID            string          `json:"record_id"`
	EvidenceID          string          `json:"evidence_id"`
	TenantID            string          `json:"tenant_id"`
	LedgerState         string          `json:"ledger_state"`
	Origin              string          `json:"origin"`
	IngestionMethod     string          `json:"ingestion_method"`
	DatasetType         string          `json:"dataset_type"`
	SourceSystem        string          `json:"source_system"`
	PayloadSHA256       string          `json:"payload_sha256"`
	PayloadBytes        int             `json:"payload_bytes"`
	Payload             []byte          `json:"payload,omitempty"`
	MetadataSHA256      string          `json:"metadata_sha256"`
	DeclaredMetadata    json.RawMessage `json:"declared_metadata,omitempty"`
	DeclaredMetadataRaw string          `json:"declared_metadata_raw,omitempty"`
	MetadataDecodeError string          `json:"metadata_decode_error,omitempty"`
	PurposeTags         []string        `json:"purpose_tags"`
	RetentionPolicy     string          `json:"retention_policy"`
	RetentionEndsAt     *time.Time      `json:"retention_ends_at_utc,omitempty"`
	ExternalReferenceID *string         `json:"external_reference_id,omitempty"`
	IngestedAt          time.Time       `json:"ingestion_timestamp_utc"`
	SealedAt            *time.Time      `json:"sealed_at_utc,omitempty"`
	QuarantineReason    *string         `json:"quarantine_reason,omitempty"`
	QuarantinedAt       *time.Time      `json:"quarantine_created_at_utc,omitempty"`
	QuarantinedBy       *string         `json:"quarantined_by,omitempty"`
	CreatedBy           string          `json:"created_by_user_id"`
	DisplayName         *string         `json:"display_name,omitempty"`
	ReviewNotes         *string         `json:"review_notes,omitempty"`
	Version             int             `json:"version"`
}

func toEvidenceResponse(rec domain.EvidenceRecord, withPayload bool) evidenceResponse {
	resp := evidenceResponse{
		RecordID:            rec.RecordID.String(),
		EvidenceID:          rec.EvidenceID,
		TenantID:            rec.TenantID,
		LedgerState:         rec.State.String(),
		Origin:              string(rec.Origin),
		IngestionMethod:     rec.Method.String(),
		DatasetType:         rec.DatasetType,
		SourceSystem:        rec.SourceSystem,
		PayloadSHA256:       rec.PayloadHash,
		PayloadBytes:        len(rec.Payload),
		MetadataSHA256:      rec.MetadataHash,
		PurposeTags:         fromPurposeTags(rec.PurposeTags),
		RetentionPolicy:     rec.RetentionPolicy.String(),
		RetentionEndsAt:     utcPtr(rec.RetentionEndsAt),
		ExternalReferenceID: rec.ExternalReferenceID,
		IngestedAt:          rec.IngestedAt.UTC(),
		SealedAt:            utcPtr(rec.SealedAt),
		QuarantineReason:    rec.QuarantineReason,
		QuarantinedAt:       utcPtr(rec.QuarantinedAt),
		QuarantinedBy:       rec.QuarantinedBy,
		CreatedBy:           rec.CreatedBy,
		DisplayName:         rec.DisplayName,
		ReviewNotes:         rec.ReviewNotes,
		Version:             rec.Version,
	}
	switch {
	case len(rec.MetadataJSON) == 0:
	case json.Valid(rec.MetadataJSON):
		resp.DeclaredMetadata = json.RawMessage(rec.MetadataJSON)
	default:
		resp.DeclaredMetadataRaw = string(rec.MetadataJSON)
	}
	resp.MetadataDecodeError = rec.MetadataDecodeErr
	if withPayload {
		resp.Payload = rec.Payload
	}
	return resp
}

type listResponse struct {
	Records []evidenceResponse `json:"records"`
	Total   int                `json:"total"`
}

type sealResponse struct {
	EvidenceID      string    `json:"evidence_id"`
	LedgerState     string    `json:"ledger_state"`
	SealedAt        time.Time `json:"sealed_at_utc"`
	AuditEventCount int       `json:"audit_event_count"`
}

type quarantineRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

type quarantineResponse struct {
	EvidenceID    string    `json:"evidence_id"`
	LedgerState   string    `json:"ledger_state"`
	Reason        string    `json:"quarantine_reason"`
	QuarantinedAt time.Time `json:"quarantine_created_at_utc"`
	QuarantinedBy string    `json:"quarantined_by"`
}

type eventRequest struct {
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
}

type eventResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	Actor     string         `json:"actor"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at_utc"`
}

func toEventResponse(ev domain.AuditEvent) eventResponse {
	return eventResponse{
		ID:        ev.ID.String(),
		EventType: ev.EventType.String(),
		Actor:     ev.Actor,
		Metadata:  ev.Metadata,
		CreatedAt: ev.CreatedAt.UTC(),
	}
}

type tenantGateResponse struct {
	TenantID    string              `json:"tenant_id"`
	Pass        bool                `json:"pass"`
	Evaluated   int                 `json:"evaluated"`
	Passed      int                 `json:"passed"`
	Failed      int                 `json:"failed"`
	Reports     []compliance.Report `json:"reports"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
}

func toTenantGateResponse(rep compliance.TenantReport) tenantGateResponse {
	reports := rep.Reports
	if reports == nil {
		reports = []compliance.Report{}
	}
	return tenantGateResponse{
		TenantID:    rep.TenantID,
		Pass:        rep.Pass(),
		Evaluated:   rep.Evaluated,
		Passed:      rep.Passed,
		Failed:      rep.Failed,
		Reports:     reports,
		EvaluatedAt: rep.EvaluatedAt,
	}
}

type fixtureRequest struct {
	EvidenceID          string            `json:"evidence_id"`
	IngestionMethod     string            `json:"ingestion_method"`
	SourceSystem        string            `json:"source_system"`
	DatasetType         string            `json:"dataset_type"`
	DeclaredScope       string            `json:"declared_scope"`
	DeclaredIntent      string            `json:"declared_intent"`
	PurposeTags         []string          `json:"purpose_tags"`
	RetentionPolicy     string            `json:"retention_policy"`
	Payload             evidencePayload   `json:"payload"`
	MethodFields        map[string]string `json:"method_specific_fields"`
	ExternalReferenceID string            `json:"external_reference_id"`
}

type fixturesRequest struct {
	Fixtures []fixtureRequest `json:"fixtures"`
}

func (req fixturesRequest) toInputs() []ledger.FixtureInput {
	out := make([]ledger.FixtureInput, len(req.Fixtures))
	for i, f := range req.Fixtures {
		out[i] = ledger.FixtureInput{
			EvidenceID:          f.EvidenceID,
			Method:              domain.IngestionMethod(f.IngestionMethod),
			SourceSystem:        f.SourceSystem,
			DatasetType:         f.DatasetType,
			DeclaredScope:       f.DeclaredScope,
			DeclaredIntent:      f.DeclaredIntent,
			PurposeTags:         toPurposeTags(f.PurposeTags),
			RetentionPolicy:     domain.RetentionPolicy(f.RetentionPolicy),
			Payload:             []byte(f.Payload),
			MethodFields:        f.MethodFields,
			ExternalReferenceID: f.ExternalReferenceID,
		}
	}
	return out
}

func toPurposeTags(in []string) []domain.PurposeTag {
	if in == nil {
		return nil
	}
	out := make([]domain.PurposeTag, len(in))
	for i, t := range in {
		out[i] = domain.PurposeTag(t)
	}
	return out
}

func fromPurposeTags(in []domain.PurposeTag) []string {
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = t.String()
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
