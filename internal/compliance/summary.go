package compliance

import "time"

// TenantReport aggregates gate results over every sealed record of a tenant.
type TenantReport struct {
	TenantID    string    `json:"tenant_id"`
	Evaluated   int       `json:"evaluated"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Reports     []Report  `json:"reports"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Pass reports whether every evaluated record passed.
func (t TenantReport) Pass() bool { return t.Failed == 0 }

// Summarize folds per-record reports into a TenantReport, keeping input order.
func Summarize(tenantID string, reports []Report, now time.Time) TenantReport {
	out := TenantReport{
		TenantID:    tenantID,
		Evaluated:   len(reports),
		Reports:     reports,
		EvaluatedAt: now.UTC(),
	}
	for _, r := range reports {
		if r.Pass {
			out.Passed++
		} else {
			out.Failed++
		}
	}
	return out
}
