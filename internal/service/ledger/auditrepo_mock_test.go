package ledger

import (
	"context"
	"sync"

	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
)

var _ auditRepo = &auditRepoMock{}

type auditRepoMock struct {
	AppendFunc        func(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListByObjectFunc  func(ctx context.Context, tenantID, objectType, objectID string) ([]domain.AuditEvent, error)
	CountByObjectFunc func(ctx context.Context, tenantID, objectType, objectID string) (int, error)

	calls struct {
		Append []struct {
			Ctx   context.Context
			Event domain.AuditEvent
		}
		ListByObject []struct {
			Ctx        context.Context
			TenantID   string
			ObjectType string
			ObjectID   string
		}
		CountByObject []struct {
			Ctx        context.Context
			TenantID   string
			ObjectType string
			ObjectID   string
		}
	}
	lockAppend        sync.RWMutex
	lockListByObject  sync.RWMutex
	lockCountByObject sync.RWMutex
}

func (mock *auditRepoMock) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if mock.AppendFunc == nil {
		panic("auditRepoMock.AppendFunc: method is nil but auditRepo.Append was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Event domain.AuditEvent
	}{Ctx: ctx, Event: event}
	mock.lockAppend.Lock()
	mock.calls.Append = append(mock.calls.Append, callInfo)
	mock.lockAppend.Unlock()
	return mock.AppendFunc(ctx, event)
}

func (mock *auditRepoMock) AppendCalls() []struct {
	Ctx   context.Context
	Event domain.AuditEvent
} {
	mock.lockAppend.RLock()
	calls := mock.calls.Append
	mock.lockAppend.RUnlock()
	return calls
}

func (mock *auditRepoMock) ListByObject(ctx context.Context, tenantID, objectType, objectID string) ([]domain.AuditEvent, error) {
	if mock.ListByObjectFunc == nil {
		panic("auditRepoMock.ListByObjectFunc: method is nil but auditRepo.ListByObject was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		TenantID   string
		ObjectType string
		ObjectID   string
	}{Ctx: ctx, TenantID: tenantID, ObjectType: objectType, ObjectID: objectID}
	mock.lockListByObject.Lock()
	mock.calls.ListByObject = append(mock.calls.ListByObject, callInfo)
	mock.lockListByObject.Unlock()
	return mock.ListByObjectFunc(ctx, tenantID, objectType, objectID)
}

func (mock *auditRepoMock) ListByObjectCalls() []struct {
	Ctx        context.Context
	TenantID   string
	ObjectType string
	ObjectID   string
} {
	mock.lockListByObject.RLock()
	calls := mock.calls.ListByObject
	mock.lockListByObject.RUnlock()
	return calls
}

func (mock *auditRepoMock) CountByObject(ctx context.Context, tenantID, objectType, objectID string) (int, error) {
	if mock.CountByObjectFunc == nil {
		panic("auditRepoMock.CountByObjectFunc: method is nil but auditRepo.CountByObject was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		TenantID   string
		ObjectType string
		ObjectID   string
	}{Ctx: ctx, TenantID: tenantID, ObjectType: objectType, ObjectID: objectID}
	mock.lockCountByObject.Lock()
	mock.calls.CountByObject = append(mock.calls.CountByObject, callInfo)
	mock.lockCountByObject.Unlock()
	return mock.CountByObjectFunc(ctx, tenantID, objectType, objectID)
}

func (mock *auditRepoMock) CountByObjectCalls() []struct {
	Ctx        context.Context
	TenantID   string
	ObjectType string
	ObjectID   string
} {
	mock.lockCountByObject.RLock()
	calls := mock.calls.CountByObject
	mock.lockCountByObject.RUnlock()
	return calls
}
