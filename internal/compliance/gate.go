// Package compliance implements the read-only compliance gate run against
// sealed evidence records. Nothing here writes to the ledger or audit trail.
package compliance

import (
	"fmt"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/evidencehash"
)

// Check identifies one independently counted gate rule.
type Check string

const (
	CheckLedgerState Check = "LEDGER_STATE"
	CheckRetention   Check = "RETENTION"
	CheckHashes      Check = "HASHES"
	CheckPurposeTags Check = "PURPOSE_TAGS"
)

// Violation is a single failed check.
type Violation struct {
	Check   Check  `json:"check"`
	Message string `json:"message"`
}

// Report is the gate outcome for one record.
type Report struct {
	EvidenceID  string      `json:"evidence_id"`
	Violations  []Violation `json:"violations"`
	Pass        bool        `json:"pass"`
	EvaluatedAt time.Time   `json:"evaluated_at"`
}

// ViolationCount returns len(Violations).
func (r Report) ViolationCount() int { return len(r.Violations) }

// Evaluate runs every check against r. It is pure: the same record yields the
// same violations no matter how often or when it is evaluated.
func Evaluate(r *domain.EvidenceRecord, now time.Time) Report {
	violations := make([]Violation, 0)

	if r.State != domain.LedgerStateSealed {
		violations = append(violations, Violation{
			Check:   CheckLedgerState,
			Message: fmt.Sprintf("ledger_state is %s, want %s", r.State, domain.LedgerStateSealed),
		})
	}

	if msg := checkRetention(r); msg != "" {
		violations = append(violations, Violation{Check: CheckRetention, Message: msg})
	}

	if msg := checkHashes(r); msg != "" {
		violations = append(violations, Violation{Check: CheckHashes, Message: msg})
	}

	if msg := checkPurposeTags(r.PurposeTags); msg != "" {
		violations = append(violations, Violation{Check: CheckPurposeTags, Message: msg})
	}

	return Report{
		EvidenceID:  r.EvidenceID,
		Violations:  violations,
		Pass:        len(violations) == 0,
		EvaluatedAt: now.UTC(),
	}
}

func checkRetention(r *domain.EvidenceRecord) string {
	if r.RetentionEndsAt == nil {
		return "retention_ends_at_utc is missing"
	}
	if r.RetentionEndsAt.IsZero() {
		return "retention_ends_at_utc is not a valid date"
	}
	if !r.IngestedAt.IsZero() && !r.RetentionEndsAt.After(r.IngestedAt) {
		return "retention_ends_at_utc does not fall after ingestion"
	}
	return ""
}

func checkHashes(r *domain.EvidenceRecord) string {
	switch {
	case r.PayloadHash == "" && r.MetadataHash == "":
		return "payload_hash_sha256 and metadata_hash_sha256 are missing"
	case r.PayloadHash == "":
		return "payload_hash_sha256 is missing"
	case r.MetadataHash == "":
		return "metadata_hash_sha256 is missing"
	case !evidencehash.IsDigest(r.PayloadHash):
		return "payload_hash_sha256 is not a sha256 hex digest"
	case !evidencehash.IsDigest(r.MetadataHash):
		return "metadata_hash_sha256 is not a sha256 hex digest"
	}
	return ""
}

func checkPurposeTags(tags []domain.PurposeTag) string {
	if len(tags) == 0 {
		return "purpose_tags is empty"
	}
	seen := make(map[domain.PurposeTag]struct{}, len(tags))
	for _, tag := range tags {
		if !tag.IsValid() {
			return fmt.Sprintf("purpose_tags contains unknown tag %q", tag)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Sprintf("purpose_tags contains duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}
	return ""
}
