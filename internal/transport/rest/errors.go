package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Transport-level codes outside the ledger's closed set.
const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeConflict        = "CONFLICT"
	codeUnauthorized    = "UNAUTHORIZED"
	codeForbidden       = "FORBIDDEN"
	codePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	codeInternal        = "INTERNAL"
)

// errorResponse is the JSON body of every non-2xx answer.
type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// statusForCode maps each ledger code to its HTTP status.
func statusForCode(code domain.ErrorCode) int {
	switch code {
	case domain.CodeMissingRequiredMetadata, domain.CodeClientPayloadNotAllowed,
		domain.CodeMissingEvidencePayload, domain.CodeMethodDisallowsFile:
		return http.StatusUnprocessableEntity
	case domain.CodeSealedImmutable, domain.CodeRecordQuarantined, domain.CodeImmutableField:
		return http.StatusConflict
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeTestFixtureNotAllowed:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (h *EvidenceHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		le *domain.LedgerError
		ve *domain.ValidationError
	)
	switch {
	case errors.As(err, &le) && le != nil:
		writeError(w, statusForCode(le.Code), string(le.Code), le.Message, le.Details)
	case errors.As(err, &ve):
		details := make(map[string]string, len(ve.Errors))
		for _, fe := range ve.Errors {
			details[fe.Field] = fe.Message
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, ve.Error(), details)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, string(domain.CodeNotFound), "evidence not found", nil)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "forbidden", nil)
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error", nil)
	}
}

// handleDecodeError answers a body that could not be read as JSON.
func handleDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large", nil)
		return
	}
	writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body", nil)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Details: details})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
