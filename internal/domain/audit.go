package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditObjectEvidence is the only object type the ledger writes.
const AuditObjectEvidence = "evidence"

// AuditEventType classifies an audit trail entry.
type AuditEventType string

const (
	AuditEventIngested            AuditEventType = "INGESTED"
	AuditEventSealed              AuditEventType = "SEALED"
	AuditEventQuarantined         AuditEventType = "QUARANTINED"
	AuditEventUpdated             AuditEventType = "UPDATED"
	AuditEventIdempotentReplay    AuditEventType = "IDEMPOTENT_REPLAY"
	AuditEventSupplierNonResponse AuditEventType = "SUPPLIER_NON_RESPONSE"
	AuditEventPrecursorAssumption AuditEventType = "PRECURSOR_ASSUMPTION"
)

func (t AuditEventType) String() string { return string(t) }

func (t AuditEventType) IsValid() bool {
	switch t {
	case AuditEventIngested, AuditEventSealed, AuditEventQuarantined, AuditEventUpdated,
		AuditEventIdempotentReplay, AuditEventSupplierNonResponse, AuditEventPrecursorAssumption:
		return true
	}
	return false
}

// IsAnnotation reports whether callers may append this event type directly.
// Lifecycle events are written only by the state machine.
func (t AuditEventType) IsAnnotation() bool {
	return t == AuditEventSupplierNonResponse || t == AuditEventPrecursorAssumption
}

// AuditEvent is an append-only audit trail entry.
type AuditEvent struct {
	ID         uuid.UUID
	TenantID   string
	ObjectType string
	ObjectID   string
	EventType  AuditEventType
	Actor      string
	Metadata   map[string]any
	CreatedAt  time.Time
}
