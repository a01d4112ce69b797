package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ErrorCode is the closed set of machine-readable ledger rejection codes.
type ErrorCode string

const (
	// Submission-shape errors.
	CodeMissingRequiredMetadata ErrorCode = "MISSING_REQUIRED_METADATA"
	CodeClientPayloadNotAllowed ErrorCode = "CLIENT_PAYLOAD_NOT_ALLOWED"
	CodeMissingEvidencePayload  ErrorCode = "MISSING_EVIDENCE_PAYLOAD"
	CodeMethodDisallowsFile     ErrorCode = "METHOD_DISALLOWS_FILE"

	// State-conflict errors.
	CodeSealedImmutable   ErrorCode = "SEALED_IMMUTABLE"
	CodeRecordQuarantined ErrorCode = "RECORD_QUARANTINED"
	CodeImmutableField    ErrorCode = "IMMUTABLE_FIELD"

	// Isolation errors.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// Boundary errors.
	CodeTestFixtureNotAllowed ErrorCode = "TEST_FIXTURE_NOT_ALLOWED"
)

// sentinel maps each code to the layer-wide sentinel it unwraps to.
func (c ErrorCode) sentinel() error {
	switch c {
	case CodeMissingRequiredMetadata, CodeClientPayloadNotAllowed, CodeMissingEvidencePayload, CodeMethodDisallowsFile:
		return ErrValidation
	case CodeSealedImmutable, CodeRecordQuarantined, CodeImmutableField:
		return ErrConflict
	case CodeNotFound:
		return ErrNotFound
	case CodeTestFixtureNotAllowed:
		return ErrForbidden
	}
	return nil
}

// LedgerError is a deterministic, caller-visible rejection.
type LedgerError struct {
	Code    ErrorCode
	Message string
	Details map[string]string
}

func (e *LedgerError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LedgerError) Unwrap() error { return e.Code.sentinel() }

// Is matches another *LedgerError by code, so errors.Is(err, ErrSealedImmutable) works.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.Code == e.Code && t.Message == "" && len(t.Details) == 0
}

// With returns a copy of e carrying an extra detail.
func (e *LedgerError) With(key, value string) *LedgerError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &LedgerError{Code: e.Code, Message: e.Message, Details: details}
}

// NewLedgerError creates a LedgerError with a human-readable message.
func NewLedgerError(code ErrorCode, message string) *LedgerError {
	return &LedgerError{Code: code, Message: message}
}

// Bare code values for errors.Is matching.
var (
	ErrMissingRequiredMetadata = &LedgerError{Code: CodeMissingRequiredMetadata}
	ErrClientPayloadNotAllowed = &LedgerError{Code: CodeClientPayloadNotAllowed}
	ErrMissingEvidencePayload  = &LedgerError{Code: CodeMissingEvidencePayload}
	ErrMethodDisallowsFile     = &LedgerError{Code: CodeMethodDisallowsFile}
	ErrSealedImmutable         = &LedgerError{Code: CodeSealedImmutable}
	ErrRecordQuarantined       = &LedgerError{Code: CodeRecordQuarantined}
	ErrImmutableField          = &LedgerError{Code: CodeImmutableField}
	ErrEvidenceNotFound        = &LedgerError{Code: CodeNotFound}
	ErrTestFixtureNotAllowed   = &LedgerError{Code: CodeTestFixtureNotAllowed}
)

// CodeOf extracts the ledger code from err. Plain ErrNotFound from a repository
// counts as NOT_FOUND.
func CodeOf(err error) (ErrorCode, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code, true
	}
	if errors.Is(err, ErrNotFound) {
		return CodeNotFound, true
	}
	return "", false
}

// StateConflict returns the rejection for an operation that needs INGESTED
// but found state. States without a ledger code wrap ErrConflict.
func StateConflict(state LedgerState) error {
	switch state {
	case LedgerStateSealed:
		return NewLedgerError(CodeSealedImmutable, "evidence is sealed and cannot be modified")
	case LedgerStateQuarantined:
		return NewLedgerError(CodeRecordQuarantined, "evidence is quarantined and cannot be modified")
	}
	return fmt.Errorf("evidence is in state %q: %w", string(state), ErrConflict)
}
