package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/emissioncoresupport/evidence-ledger/internal/compliance"
)

// RunComplianceGate evaluates one of the caller's records. It never writes.
func (s *Service) RunComplianceGate(ctx context.Context, evidenceID string) (compliance.Report, error) {
	rec, err := s.Get(ctx, evidenceID)
	if err != nil {
		return compliance.Report{}, err
	}

	report := compliance.Evaluate(&rec, s.now())
	s.metrics.ObserveGate(report.Pass)
	return report, nil
}

// RunTenantGate evaluates every SEALED record of the caller's tenant,
// at most cfg.GateConcurrency at a time.
func (s *Service) RunTenantGate(ctx context.Context) (compliance.TenantReport, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return compliance.TenantReport{}, err
	}

	ids, err := s.evidence.ListSealedIDs(ctx, tenantID)
	if err != nil {
		return compliance.TenantReport{}, fmt.Errorf("list sealed evidence: %w", err)
	}

	reports := make([]compliance.Report, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.GateConcurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			rec, err := s.evidence.GetByEvidenceID(gctx, tenantID, id)
			if err != nil {
				return fmt.Errorf("get evidence %s: %w", id, err)
			}
			reports[i] = compliance.Evaluate(&rec, s.now())
			s.metrics.ObserveGate(reports[i].Pass)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compliance.TenantReport{}, err
	}

	summary := compliance.Summarize(tenantID, reports, s.now())

	s.log.InfoContext(ctx, "tenant compliance gate evaluated",
		slog.String("tenant_id", tenantID),
		slog.Int("evaluated", summary.Evaluated),
		slog.Int("failed", summary.Failed),
	)

	return summary, nil
}
