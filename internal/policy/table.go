// Package policy holds the declarative per-ingestion-method rules the
// ingestion validator and the seal transition enforce.
package policy

import (
	"strings"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// Policy is the completeness contract for one ingestion method.
type Policy struct {
	Method         domain.IngestionMethod
	RequiredFields []string
	SourceSystem   SourceSystemRule

	// ClientPayloadAllowed is false when content must originate server-side.
	ClientPayloadAllowed bool
	// EmptyPayloadAllowed governs ingestion; PayloadRequiredAtSeal is checked
	// again by the seal transition.
	EmptyPayloadAllowed   bool
	PayloadRequiredAtSeal bool

	FilesAllowed bool

	// IdempotencyKeyField names the field deduplicated by the idempotency guard.
	// Empty when the method carries no idempotency key.
	IdempotencyKeyField string
}

// MissingFields returns the required fields that are absent or blank in fields,
// in table order.
func (p Policy) MissingFields(fields map[string]string) []string {
	var missing []string
	for _, f := range p.RequiredFields {
		if strings.TrimSpace(fields[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// UsesIdempotencyKey reports whether submissions for this method are deduplicated.
func (p Policy) UsesIdempotencyKey() bool { return p.IdempotencyKeyField != "" }

// Table maps every ingestion method to its policy.
type Table map[domain.IngestionMethod]Policy

// Lookup returns the policy for m.
func (t Table) Lookup(m domain.IngestionMethod) (Policy, bool) {
	p, ok := t[m]
	return p, ok
}

// ERPSourceSystems is the closed enumeration accepted for ERP methods.
func ERPSourceSystems() []string {
	return []string{
		domain.SourceSystemSAP,
		domain.SourceSystemOracle,
		domain.SourceSystemMicrosoftDynamics,
		domain.SourceSystemNetSuite,
		domain.SourceSystemOdoo,
		domain.SourceSystemInfor,
		domain.SourceSystemOtherERP,
	}
}

// Default returns the ledger's method policy table.
func Default() Table {
	return Table{
		domain.MethodFileUpload: {
			Method:                domain.MethodFileUpload,
			RequiredFields:        []string{domain.FieldFileName},
			SourceSystem:          Free(),
			ClientPayloadAllowed:  true,
			EmptyPayloadAllowed:   false,
			PayloadRequiredAtSeal: true,
			FilesAllowed:          true,
		},
		domain.MethodERPExport: {
			Method:                domain.MethodERPExport,
			RequiredFields:        []string{domain.FieldExportBatchID},
			SourceSystem:          Enumerated(ERPSourceSystems()...),
			ClientPayloadAllowed:  true,
			EmptyPayloadAllowed:   false,
			PayloadRequiredAtSeal: true,
			FilesAllowed:          true,
		},
		domain.MethodERPAPI: {
			Method:               domain.MethodERPAPI,
			RequiredFields:       []string{domain.FieldSnapshotDatetimeUTC},
			SourceSystem:         Enumerated(ERPSourceSystems()...),
			ClientPayloadAllowed: false,
			EmptyPayloadAllowed:  true,
			FilesAllowed:         true,
		},
		domain.MethodSupplierPortal: {
			Method:               domain.MethodSupplierPortal,
			RequiredFields:       []string{domain.FieldSupplierPortalRequestID},
			SourceSystem:         ExactMatch(domain.SourceSystemSupplierPortal),
			ClientPayloadAllowed: true,
			EmptyPayloadAllowed:  true,
			FilesAllowed:         true,
		},
		domain.MethodAPIPush: {
			Method:                domain.MethodAPIPush,
			RequiredFields:        []string{domain.FieldExternalReferenceID},
			SourceSystem:          Free(),
			ClientPayloadAllowed:  true,
			EmptyPayloadAllowed:   false,
			PayloadRequiredAtSeal: true,
			FilesAllowed:          true,
			IdempotencyKeyField:   domain.FieldExternalReferenceID,
		},
		domain.MethodManualEntry: {
			Method:               domain.MethodManualEntry,
			RequiredFields:       []string{domain.FieldEntryNotes},
			SourceSystem:         Fixed(domain.SourceSystemInternalManual),
			ClientPayloadAllowed: true,
			EmptyPayloadAllowed:  true,
			FilesAllowed:         false,
		},
	}
}
