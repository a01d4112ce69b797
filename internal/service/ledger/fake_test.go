package ledger

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory evidence store
// ---------------------------------------------------------------------------

var _ evidenceRepo = (*fakeEvidenceRepo)(nil)

// fakeEvidenceRepo keeps records per (tenant, evidence id) and applies the
// same conditional-update rules as the PostgreSQL repository.
type fakeEvidenceRepo struct {
	mu      sync.Mutex
	records map[string]domain.EvidenceRecord
	order   []string
}

func newFakeEvidenceRepo() *fakeEvidenceRepo {
	return &fakeEvidenceRepo{records: make(map[string]domain.EvidenceRecord)}
}

func recordKey(tenantID, evidenceID string) string { return tenantID + "/" + evidenceID }

func (f *fakeEvidenceRepo) Create(_ context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := recordKey(rec.TenantID, rec.EvidenceID)
	if _, ok := f.records[k]; ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", rec.EvidenceID, domain.ErrAlreadyExists)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	f.records[k] = rec
	f.order = append(f.order, k)
	return rec, nil
}

func (f *fakeEvidenceRepo) GetByEvidenceID(_ context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[recordKey(tenantID, evidenceID)]
	if !ok {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", evidenceID, domain.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeEvidenceRepo) GetForUpdate(ctx context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error) {
	return f.GetByEvidenceID(ctx, tenantID, evidenceID)
}

func (f *fakeEvidenceRepo) mutate(tenantID, evidenceID string, version int, fn func(*domain.EvidenceRecord)) (domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := recordKey(tenantID, evidenceID)
	rec, ok := f.records[k]
	if !ok || rec.State != domain.LedgerStateIngested || rec.Version != version {
		return domain.EvidenceRecord{}, fmt.Errorf("evidence %s: %w", evidenceID, domain.ErrConflict)
	}
	fn(&rec)
	rec.Version++
	f.records[k] = rec
	return rec, nil
}

func (f *fakeEvidenceRepo) Seal(_ context.Context, tenantID, evidenceID string, version int, sealedAt time.Time) (domain.EvidenceRecord, error) {
	return f.mutate(tenantID, evidenceID, version, func(r *domain.EvidenceRecord) {
		r.State = domain.LedgerStateSealed
		r.SealedAt = &sealedAt
	})
}

func (f *fakeEvidenceRepo) Quarantine(_ context.Context, tenantID, evidenceID string, version int, reason, actor string, at time.Time) (domain.EvidenceRecord, error) {
	return f.mutate(tenantID, evidenceID, version, func(r *domain.EvidenceRecord) {
		r.State = domain.LedgerStateQuarantined
		r.QuarantineReason = &reason
		r.QuarantinedBy = &actor
		r.QuarantinedAt = &at
	})
}

func (f *fakeEvidenceRepo) UpdateAnnotations(_ context.Context, tenantID, evidenceID string, version int, displayName, reviewNotes *string) (domain.EvidenceRecord, error) {
	return f.mutate(tenantID, evidenceID, version, func(r *domain.EvidenceRecord) {
		r.DisplayName = displayName
		r.ReviewNotes = reviewNotes
	})
}

func (f *fakeEvidenceRepo) matching(tenantID string, filter domain.EvidenceFilter) []domain.EvidenceRecord {
	var out []domain.EvidenceRecord
	for _, k := range f.order {
		rec := f.records[k]
		if rec.TenantID != tenantID {
			continue
		}
		if len(filter.States) > 0 && !slices.Contains(filter.States, rec.State) {
			continue
		}
		if filter.ExcludeQuarantined && rec.State == domain.LedgerStateQuarantined {
			continue
		}
		if filter.Method != nil && rec.Method != *filter.Method {
			continue
		}
		if filter.PurposeTag != nil && !slices.Contains(rec.PurposeTags, *filter.PurposeTag) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (f *fakeEvidenceRepo) List(_ context.Context, tenantID string, filter domain.EvidenceFilter) ([]domain.EvidenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	filter.Normalize()
	all := f.matching(tenantID, filter)
	sort.SliceStable(all, func(i, j int) bool { return all[i].IngestedAt.After(all[j].IngestedAt) })

	if filter.Offset >= len(all) {
		return []domain.EvidenceRecord{}, nil
	}
	end := min(filter.Offset+filter.Limit, len(all))
	return all[filter.Offset:end], nil
}

func (f *fakeEvidenceRepo) Count(_ context.Context, tenantID string, filter domain.EvidenceFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(tenantID, filter)), nil
}

func (f *fakeEvidenceRepo) ListSealedIDs(_ context.Context, tenantID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, rec := range f.matching(tenantID, domain.EvidenceFilter{States: []domain.LedgerState{domain.LedgerStateSealed}}) {
		ids = append(ids, rec.EvidenceID)
	}
	return ids, nil
}

// put stores rec as-is, for tests that need a record in a specific shape.
func (f *fakeEvidenceRepo) put(rec domain.EvidenceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := recordKey(rec.TenantID, rec.EvidenceID)
	if _, ok := f.records[k]; !ok {
		f.order = append(f.order, k)
	}
	f.records[k] = rec
}

// ---------------------------------------------------------------------------
// In-memory audit trail
// ---------------------------------------------------------------------------

var _ auditRepo = (*fakeAuditRepo)(nil)

type fakeAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (f *fakeAuditRepo) Append(_ context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeAuditRepo) ListByObject(_ context.Context, tenantID, objectType, objectID string) ([]domain.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.AuditEvent{}
	for _, e := range f.events {
		if e.TenantID == tenantID && e.ObjectType == objectType && e.ObjectID == objectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) CountByObject(ctx context.Context, tenantID, objectType, objectID string) (int, error) {
	events, _ := f.ListByObject(ctx, tenantID, objectType, objectID)
	return len(events), nil
}

// types returns the event types recorded for one record, oldest first.
func (f *fakeAuditRepo) types(tenantID, evidenceID string) []domain.AuditEventType {
	events, _ := f.ListByObject(context.Background(), tenantID, domain.AuditObjectEvidence, evidenceID)
	out := make([]domain.AuditEventType, len(events))
	for i, e := range events {
		out[i] = e.EventType
	}
	return out
}

// ---------------------------------------------------------------------------
// In-memory idempotency guard
// ---------------------------------------------------------------------------

var _ idempotencyGuard = (*fakeGuard)(nil)

type fakeClaim struct {
	owner     string
	expiresAt time.Time
}

type fakeGuard struct {
	mu        sync.Mutex
	claims    map[string]fakeClaim
	confirmed []string
	released  []string
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claims: make(map[string]fakeClaim)}
}

func (g *fakeGuard) Claim(_ context.Context, tenantID, key, evidenceID string, window time.Duration, now time.Time) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := recordKey(tenantID, key)
	if c, ok := g.claims[k]; ok && c.expiresAt.After(now) {
		return c.owner, false, nil
	}
	g.claims[k] = fakeClaim{owner: evidenceID, expiresAt: now.Add(window)}
	return evidenceID, true, nil
}

func (g *fakeGuard) Confirm(_ context.Context, _, _, evidenceID string, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.confirmed = append(g.confirmed, evidenceID)
	return nil
}

func (g *fakeGuard) Release(_ context.Context, tenantID, key, evidenceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := recordKey(tenantID, key)
	if c, ok := g.claims[k]; ok && c.owner == evidenceID {
		delete(g.claims, k)
	}
	g.released = append(g.released, evidenceID)
	return nil
}
