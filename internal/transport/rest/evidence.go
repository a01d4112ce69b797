package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emissioncoresupport/evidence-ledger/internal/compliance"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/service/ledger"
)

// ledgerService defines the minimal interface needed by EvidenceHandler.
type ledgerService interface {
	Ingest(ctx context.Context, in ledger.IngestInput) (ledger.IngestResult, error)
	Get(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error)
	List(ctx context.Context, input ledger.ListInput) (ledger.ListResult, error)
	Update(ctx context.Context, input ledger.UpdateInput) (domain.EvidenceRecord, error)
	Seal(ctx context.Context, evidenceID string) (ledger.SealResult, error)
	Quarantine(ctx context.Context, input ledger.QuarantineInput) (ledger.QuarantineResult, error)
	History(ctx context.Context, evidenceID string) ([]domain.AuditEvent, error)
	RecordEvent(ctx context.Context, input ledger.RecordEventInput) (domain.AuditEvent, error)
	RunComplianceGate(ctx context.Context, evidenceID string) (compliance.Report, error)
	RunTenantGate(ctx context.Context) (compliance.TenantReport, error)
	ImportFixtures(ctx context.Context, fixtures []ledger.FixtureInput) ([]ledger.IngestResult, error)
	DataMode() domain.DataMode
}

// EvidenceHandler serves the ledger REST endpoints. Every route expects the
// tenant to be resolved by middleware.
type EvidenceHandler struct {
	svc ledgerService
	log *slog.Logger
}

// NewEvidenceHandler creates an EvidenceHandler.
func NewEvidenceHandler(svc ledgerService, logger *slog.Logger) *EvidenceHandler {
	return &EvidenceHandler{svc: svc, log: logger.With("handler", "evidence")}
}

// Routes returns the ledger router. The test harness is only mounted when the
// data mode admits fixtures.
func (h *EvidenceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/evidence", func(r chi.Router) {
		r.Post("/", h.Ingest)
		r.Get("/", h.List)
		r.Route("/{evidenceID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Post("/seal", h.Seal)
			r.Post("/quarantine", h.Quarantine)
			r.Get("/compliance", h.Compliance)
			r.Get("/events", h.History)
			r.Post("/events", h.RecordEvent)
		})
	})
	r.Get("/compliance", h.TenantCompliance)

	if h.svc.DataMode().AllowsFixtures() {
		r.Post("/test-harness/fixtures", h.ImportFixtures)
	}

	return r
}

// Ingest handles POST /evidence. A replayed submission answers 200 with the
// original record; a new one answers 201.
func (h *EvidenceHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	res, err := h.svc.Ingest(r.Context(), req.toInput())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, toIngestResponse(res))
}

// List handles GET /evidence?state=SEALED&method=...&purpose_tag=...&limit=50&offset=0.
func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	input, err := parseListQuery(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.svc.List(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	records := make([]evidenceResponse, len(res.Records))
	for i, rec := range res.Records {
		records[i] = toEvidenceResponse(rec, false)
	}
	writeJSON(w, http.StatusOK, listResponse{Records: records, Total: res.Total})
}

// Get handles GET /evidence/{evidenceID}. The payload is included on request.
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	withPayload, _ := strconv.ParseBool(r.URL.Query().Get("include_payload"))
	writeJSON(w, http.StatusOK, toEvidenceResponse(rec, withPayload))
}

// Update handles PATCH /evidence/{evidenceID}.
func (h *EvidenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(r, &fields); err != nil {
		handleDecodeError(w, err)
		return
	}

	rec, err := h.svc.Update(r.Context(), ledger.UpdateInput{
		EvidenceID: chi.URLParam(r, "evidenceID"),
		Fields:     fields,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEvidenceResponse(rec, false))
}

// Seal handles POST /evidence/{evidenceID}/seal.
func (h *EvidenceHandler) Seal(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Seal(r.Context(), chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sealResponse{
		EvidenceID:      res.EvidenceID,
		LedgerState:     res.State.String(),
		SealedAt:        res.SealedAt.UTC(),
		AuditEventCount: res.AuditEventCount,
	})
}

// Quarantine handles POST /evidence/{evidenceID}/quarantine.
func (h *EvidenceHandler) Quarantine(w http.ResponseWriter, r *http.Request) {
	var req quarantineRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	res, err := h.svc.Quarantine(r.Context(), ledger.QuarantineInput{
		EvidenceID: chi.URLParam(r, "evidenceID"),
		Reason:     req.Reason,
		Actor:      req.Actor,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quarantineResponse{
		EvidenceID:    res.EvidenceID,
		LedgerState:   res.State.String(),
		Reason:        res.Reason,
		QuarantinedAt: res.QuarantinedAt.UTC(),
		QuarantinedBy: res.QuarantinedBy,
	})
}

// Compliance handles GET /evidence/{evidenceID}/compliance.
func (h *EvidenceHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.RunComplianceGate(r.Context(), chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// TenantCompliance handles GET /compliance.
func (h *EvidenceHandler) TenantCompliance(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.RunTenantGate(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTenantGateResponse(rep))
}

// History handles GET /evidence/{evidenceID}/events.
func (h *EvidenceHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.History(r.Context(), chi.URLParam(r, "evidenceID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i, ev := range events {
		out[i] = toEventResponse(ev)
	}
	writeJSON(w, http.StatusOK, out)
}

// RecordEvent handles POST /evidence/{evidenceID}/events.
func (h *EvidenceHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	ev, err := h.svc.RecordEvent(r.Context(), ledger.RecordEventInput{
		EvidenceID: chi.URLParam(r, "evidenceID"),
		EventType:  domain.AuditEventType(req.EventType),
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(ev))
}

// ImportFixtures handles POST /test-harness/fixtures.
func (h *EvidenceHandler) ImportFixtures(w http.ResponseWriter, r *http.Request) {
	var req fixturesRequest
	if err := decodeJSON(r, &req); err != nil {
		handleDecodeError(w, err)
		return
	}

	results, err := h.svc.ImportFixtures(r.Context(), req.toInputs())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]ingestResponse, len(results))
	for i, res := range results {
		out[i] = toIngestResponse(res)
	}
	writeJSON(w, http.StatusCreated, out)
}

// parseListQuery reads list filters. state may repeat or be comma-separated.
func parseListQuery(r *http.Request) (ledger.ListInput, error) {
	q := r.URL.Query()
	var (
		input ledger.ListInput
		errs  []domain.FieldError
	)

	for _, raw := range q["state"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				input.States = append(input.States, domain.LedgerState(strings.ToUpper(s)))
			}
		}
	}

	if v := q.Get("exclude_quarantined"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "exclude_quarantined", Message: "must be a boolean"})
		}
		input.ExcludeQuarantined = b
	}

	if v := q.Get("method"); v != "" {
		m := domain.IngestionMethod(v)
		input.Method = &m
	}
	if v := q.Get("purpose_tag"); v != "" {
		t := domain.PurposeTag(v)
		input.PurposeTag = &t
	}

	for _, p := range []struct {
		name   string
		target **time.Time
	}{
		{"ingested_from", &input.IngestedFrom},
		{"ingested_to", &input.IngestedTo},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: p.name, Message: "must be an RFC 3339 timestamp"})
			continue
		}
		*p.target = &t
	}

	for _, p := range []struct {
		name   string
		target *int
	}{
		{"limit", &input.Limit},
		{"offset", &input.Offset},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: p.name, Message: "must be an integer"})
			continue
		}
		*p.target = n
	}

	if len(errs) > 0 {
		return input, domain.NewValidationErrors(errs)
	}
	return input, nil
}
