// Package ledger implements the evidence ledger: ingestion, the lifecycle
// state machine, the compliance gate entry points and the audit history.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emissioncoresupport/evidence-ledger/internal/config"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/policy"
	"github.com/emissioncoresupport/evidence-ledger/pkg/ctxutil"
)

type evidenceRepo interface {
	Create(ctx context.Context, rec domain.EvidenceRecord) (domain.EvidenceRecord, error)
	GetByEvidenceID(ctx context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error)
	GetForUpdate(ctx context.Context, tenantID, evidenceID string) (domain.EvidenceRecord, error)
	Seal(ctx context.Context, tenantID, evidenceID string, version int, sealedAt time.Time) (domain.EvidenceRecord, error)
	Quarantine(ctx context.Context, tenantID, evidenceID string, version int, reason, actor string, at time.Time) (domain.EvidenceRecord, error)
	UpdateAnnotations(ctx context.Context, tenantID, evidenceID string, version int, displayName, reviewNotes *string) (domain.EvidenceRecord, error)
	List(ctx context.Context, tenantID string, filter domain.EvidenceFilter) ([]domain.EvidenceRecord, error)
	Count(ctx context.Context, tenantID string, filter domain.EvidenceFilter) (int, error)
	ListSealedIDs(ctx context.Context, tenantID string) ([]string, error)
}

type auditRepo interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListByObject(ctx context.Context, tenantID, objectType, objectID string) ([]domain.AuditEvent, error)
	CountByObject(ctx context.Context, tenantID, objectType, objectID string) (int, error)
}

type idempotencyGuard interface {
	Claim(ctx context.Context, tenantID, key, evidenceID string, window time.Duration, now time.Time) (string, bool, error)
	Confirm(ctx context.Context, tenantID, key, evidenceID string, window time.Duration) error
	Release(ctx context.Context, tenantID, key, evidenceID string) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type metricsRecorder interface {
	ObserveIngest(method, outcome string)
	ObserveTransition(operation, outcome string)
	ObserveGate(pass bool)
}

// Service provides the evidence ledger operations. Every operation is scoped
// to the tenant carried by the context.
type Service struct {
	evidence evidenceRepo
	audit    auditRepo
	idem     idempotencyGuard
	tx       txManager
	metrics  metricsRecorder
	policies policy.Table
	cfg      config.LedgerConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new ledger service.
func NewService(
	log *slog.Logger,
	evidence evidenceRepo,
	audit auditRepo,
	idem idempotencyGuard,
	tx txManager,
	metrics metricsRecorder,
	cfg config.LedgerConfig,
) *Service {
	return &Service{
		evidence: evidence,
		audit:    audit,
		idem:     idem,
		tx:       tx,
		metrics:  metrics,
		policies: policy.Default(),
		cfg:      cfg,
		log:      log.With("service", "ledger"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DataMode returns the mode the service was configured with.
func (s *Service) DataMode() domain.DataMode {
	return s.cfg.Mode()
}

// caller resolves the tenant and acting user from the context.
func caller(ctx context.Context) (tenantID, userID string, err error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return "", "", domain.ErrUnauthorized
	}
	userID, ok = ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return "", "", domain.ErrUnauthorized
	}
	return tenantID, userID, nil
}

// tenant resolves only the tenant; reads do not need an acting user.
func tenant(ctx context.Context) (string, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return tenantID, nil
}

func newEvidenceID() string {
	return "EV-" + uuid.New().String()
}

func (s *Service) newAuditEvent(tenantID, evidenceID string, eventType domain.AuditEventType, actor string, metadata map[string]any) domain.AuditEvent {
	return domain.AuditEvent{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ObjectType: domain.AuditObjectEvidence,
		ObjectID:   evidenceID,
		EventType:  eventType,
		Actor:      actor,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	}
}

// outcome turns an operation error into a metrics label.
func outcome(err error) string {
	if err == nil {
		return "accepted"
	}
	if code, ok := domain.CodeOf(err); ok {
		return string(code)
	}
	return "error"
}
