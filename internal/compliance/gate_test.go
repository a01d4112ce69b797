package compliance

import (
	"strings"
	"testing"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

func sealedRecord() *domain.EvidenceRecord {
	ingested := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	sealed := ingested.Add(time.Hour)
	ends := ingested.AddDate(7, 0, 0)
	return &domain.EvidenceRecord{
		EvidenceID:      "EV-1",
		TenantID:        "tenant-a",
		State:           domain.LedgerStateSealed,
		PayloadHash:     strings.Repeat("a", 64),
		MetadataHash:    strings.Repeat("b", 64),
		PurposeTags:     []domain.PurposeTag{domain.PurposeCBAM, domain.PurposeCSRD},
		RetentionPolicy: domain.RetentionStandard7Years,
		RetentionEndsAt: &ends,
		IngestedAt:      ingested,
		SealedAt:        &sealed,
	}
}

func TestEvaluate_CompliantRecordPasses(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	rep := Evaluate(sealedRecord(), now)

	if !rep.Pass {
		t.Fatalf("expected pass, got violations %+v", rep.Violations)
	}
	if rep.ViolationCount() != 0 {
		t.Fatalf("expected 0 violations, got %d", rep.ViolationCount())
	}
	if rep.EvidenceID != "EV-1" || !rep.EvaluatedAt.Equal(now) {
		t.Errorf("unexpected report header: %+v", rep)
	}
}

func TestEvaluate_EachConditionFailsIndependently(t *testing.T) {
	t.Parallel()

	zero := time.Time{}
	before := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(r *domain.EvidenceRecord)
		check  Check
	}{
		{"not sealed", func(r *domain.EvidenceRecord) { r.State = domain.LedgerStateIngested }, CheckLedgerState},
		{"quarantined", func(r *domain.EvidenceRecord) { r.State = domain.LedgerStateQuarantined }, CheckLedgerState},
		{"retention missing", func(r *domain.EvidenceRecord) { r.RetentionEndsAt = nil }, CheckRetention},
		{"retention zero", func(r *domain.EvidenceRecord) { r.RetentionEndsAt = &zero }, CheckRetention},
		{"retention before ingestion", func(r *domain.EvidenceRecord) { r.RetentionEndsAt = &before }, CheckRetention},
		{"payload hash missing", func(r *domain.EvidenceRecord) { r.PayloadHash = "" }, CheckHashes},
		{"metadata hash missing", func(r *domain.EvidenceRecord) { r.MetadataHash = "" }, CheckHashes},
		{"both hashes missing", func(r *domain.EvidenceRecord) { r.PayloadHash, r.MetadataHash = "", "" }, CheckHashes},
		{"malformed hash", func(r *domain.EvidenceRecord) { r.PayloadHash = "xyz" }, CheckHashes},
		{"purpose tags empty", func(r *domain.EvidenceRecord) { r.PurposeTags = nil }, CheckPurposeTags},
		{"purpose tags duplicate", func(r *domain.EvidenceRecord) {
			r.PurposeTags = []domain.PurposeTag{domain.PurposeCBAM, domain.PurposeCBAM}
		}, CheckPurposeTags},
		{"purpose tags unknown", func(r *domain.EvidenceRecord) {
			r.PurposeTags = []domain.PurposeTag{"MARKETING"}
		}, CheckPurposeTags},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := sealedRecord()
			tt.mutate(r)

			rep := Evaluate(r, time.Now())
			if rep.Pass {
				t.Fatal("expected FAIL")
			}
			if rep.ViolationCount() != 1 {
				t.Fatalf("expected exactly 1 violation, got %+v", rep.Violations)
			}
			if rep.Violations[0].Check != tt.check {
				t.Errorf("check: got %s, want %s", rep.Violations[0].Check, tt.check)
			}
		})
	}
}

func TestEvaluate_CountsViolationsSeparately(t *testing.T) {
	t.Parallel()

	r := sealedRecord()
	r.State = domain.LedgerStateIngested
	r.RetentionEndsAt = nil
	r.PayloadHash = ""
	r.PurposeTags = nil

	rep := Evaluate(r, time.Now())
	if rep.ViolationCount() != 4 {
		t.Fatalf("expected 4 violations, got %d: %+v", rep.ViolationCount(), rep.Violations)
	}
}

func TestEvaluate_DoesNotMutateRecord(t *testing.T) {
	t.Parallel()

	r := sealedRecord()
	r.PurposeTags = []domain.PurposeTag{domain.PurposeCSRD, domain.PurposeCBAM}
	before := *r

	first := Evaluate(r, time.Now())
	second := Evaluate(r, time.Now())

	if r.State != before.State || r.PayloadHash != before.PayloadHash || r.PurposeTags[0] != domain.PurposeCSRD {
		t.Fatal("record mutated by Evaluate")
	}
	if first.Pass != second.Pass || first.ViolationCount() != second.ViolationCount() {
		t.Fatal("evaluation is not idempotent")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Now()
	reports := []Report{
		{EvidenceID: "a", Pass: true},
		{EvidenceID: "b", Pass: false, Violations: []Violation{{Check: CheckHashes}}},
		{EvidenceID: "c", Pass: true},
	}

	sum := Summarize("tenant-a", reports, now)
	if sum.Evaluated != 3 || sum.Passed != 2 || sum.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.Pass() {
		t.Error("summary with a failure must not pass")
	}
	if Summarize("t", nil, now).Pass() != true {
		t.Error("empty summary should pass")
	}
}
