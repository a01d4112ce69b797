package domain

import "time"

// LedgerState is the lifecycle state of an evidence record.
type LedgerState string

const (
	LedgerStateIngested    LedgerState = "INGESTED"
	LedgerStateSealed      LedgerState = "SEALED"
	LedgerStateQuarantined LedgerState = "QUARANTINED"
)

func (s LedgerState) String() string { return string(s) }

func (s LedgerState) IsValid() bool {
	switch s {
	case LedgerStateIngested, LedgerStateSealed, LedgerStateQuarantined:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s LedgerState) IsTerminal() bool {
	return s == LedgerStateSealed || s == LedgerStateQuarantined
}

// CanTransitionTo is the whole transition table: INGESTED -> SEALED | QUARANTINED.
func (s LedgerState) CanTransitionTo(next LedgerState) bool {
	return s == LedgerStateIngested && (next == LedgerStateSealed || next == LedgerStateQuarantined)
}

// IngestionMethod is the declared channel through which evidence entered the ledger.
type IngestionMethod string

const (
	MethodFileUpload     IngestionMethod = "FILE_UPLOAD"
	MethodERPExport      IngestionMethod = "ERP_EXPORT"
	MethodERPAPI         IngestionMethod = "ERP_API"
	MethodSupplierPortal IngestionMethod = "SUPPLIER_PORTAL"
	MethodAPIPush        IngestionMethod = "API_PUSH"
	MethodManualEntry    IngestionMethod = "MANUAL_ENTRY"
)

func (m IngestionMethod) String() string { return string(m) }

func (m IngestionMethod) IsValid() bool {
	switch m {
	case MethodFileUpload, MethodERPExport, MethodERPAPI, MethodSupplierPortal, MethodAPIPush, MethodManualEntry:
		return true
	}
	return false
}

// AllIngestionMethods returns every method in declaration order.
func AllIngestionMethods() []IngestionMethod {
	return []IngestionMethod{
		MethodFileUpload, MethodERPExport, MethodERPAPI,
		MethodSupplierPortal, MethodAPIPush, MethodManualEntry,
	}
}

// PurposeTag declares which regulatory regime an evidence record supports.
type PurposeTag string

const (
	PurposeCBAM                 PurposeTag = "CBAM"
	PurposeCSRD                 PurposeTag = "CSRD"
	PurposePFAS                 PurposeTag = "PFAS"
	PurposePPWR                 PurposeTag = "PPWR"
	PurposeEUDR                 PurposeTag = "EUDR"
	PurposeDPP                  PurposeTag = "DPP"
	PurposeSupplierDueDiligence PurposeTag = "SUPPLIER_DUE_DILIGENCE"
	PurposeInternalAudit        PurposeTag = "INTERNAL_AUDIT"
)

func (p PurposeTag) String() string { return string(p) }

func (p PurposeTag) IsValid() bool {
	switch p {
	case PurposeCBAM, PurposeCSRD, PurposePFAS, PurposePPWR, PurposeEUDR, PurposeDPP,
		PurposeSupplierDueDiligence, PurposeInternalAudit:
		return true
	}
	return false
}

// RetentionPolicy names how long sealed evidence must be kept.
type RetentionPolicy string

const (
	RetentionShort2Years     RetentionPolicy = "SHORT_2_YEARS"
	RetentionStandard7Years  RetentionPolicy = "STANDARD_7_YEARS"
	RetentionExtended10Years RetentionPolicy = "EXTENDED_10_YEARS"
	RetentionLongTerm25Years RetentionPolicy = "LONG_TERM_25_YEARS"
)

func (r RetentionPolicy) String() string { return string(r) }

func (r RetentionPolicy) IsValid() bool {
	return r.years() > 0
}

func (r RetentionPolicy) years() int {
	switch r {
	case RetentionShort2Years:
		return 2
	case RetentionStandard7Years:
		return 7
	case RetentionExtended10Years:
		return 10
	case RetentionLongTerm25Years:
		return 25
	}
	return 0
}

// EndsAt resolves the policy against the ingestion instant.
// Returns false for unknown policies.
func (r RetentionPolicy) EndsAt(from time.Time) (time.Time, bool) {
	y := r.years()
	if y == 0 {
		return time.Time{}, false
	}
	return from.UTC().AddDate(y, 0, 0), true
}

// DataMode selects which entry points the ledger accepts.
type DataMode string

const (
	DataModeTest    DataMode = "TEST"
	DataModeSandbox DataMode = "SANDBOX"
	DataModeLive    DataMode = "LIVE"
)

func (m DataMode) String() string { return string(m) }

func (m DataMode) IsValid() bool {
	switch m {
	case DataModeTest, DataModeSandbox, DataModeLive:
		return true
	}
	return false
}

// AllowsFixtures reports whether test fixtures may enter the ledger.
func (m DataMode) AllowsFixtures() bool {
	return m == DataModeTest || m == DataModeSandbox
}

// Origin records how a row was written.
type Origin string

const (
	OriginClient      Origin = "CLIENT"
	OriginTestFixture Origin = "TEST_FIXTURE"
)

func (o Origin) IsValid() bool {
	return o == OriginClient || o == OriginTestFixture
}

// Source systems accepted for ERP methods and the forced/exact-match values.
const (
	SourceSystemSAP               = "SAP"
	SourceSystemOracle            = "ORACLE"
	SourceSystemMicrosoftDynamics = "MICROSOFT_DYNAMICS"
	SourceSystemNetSuite          = "NETSUITE"
	SourceSystemOdoo              = "ODOO"
	SourceSystemInfor             = "INFOR"
	SourceSystemOtherERP          = "OTHER_ERP"

	SourceSystemInternalManual = "INTERNAL_MANUAL"
	SourceSystemSupplierPortal = "SUPPLIER_PORTAL"
)
