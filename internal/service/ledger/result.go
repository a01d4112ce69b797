package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// IngestResult identifies the ledgered record. Replayed is true when an
// idempotent resubmission returned an earlier record.
type IngestResult struct {
	EvidenceID   string
	RecordID     uuid.UUID
	State        domain.LedgerState
	SourceSystem string
	PayloadHash  string
	MetadataHash string
	Replayed     bool
}

func ingestResultFrom(rec domain.EvidenceRecord, replayed bool) IngestResult {
	return IngestResult{
		EvidenceID:   rec.EvidenceID,
		RecordID:     rec.RecordID,
		State:        rec.State,
		SourceSystem: rec.SourceSystem,
		PayloadHash:  rec.PayloadHash,
		MetadataHash: rec.MetadataHash,
		Replayed:     replayed,
	}
}

// SealResult is the outcome of a successful seal.
type SealResult struct {
	EvidenceID      string
	State           domain.LedgerState
	SealedAt        time.Time
	AuditEventCount int
}

// QuarantineResult is the outcome of a successful quarantine.
type QuarantineResult struct {
	EvidenceID    string
	State         domain.LedgerState
	Reason        string
	QuarantinedAt time.Time
	QuarantinedBy string
}

// ListResult is a page of records plus the total matching count.
type ListResult struct {
	Records []domain.EvidenceRecord
	Total   int
}
