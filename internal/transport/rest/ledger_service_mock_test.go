package rest

import (
	"context"
	"sync"

	"github.com/emissioncoresupport/evidence-ledger/internal/compliance"
	"github.com/emissioncoresupport/evidence-ledger/internal/domain"
	"github.com/emissioncoresupport/evidence-ledger/internal/service/ledger"
)

var _ ledgerService = &ledgerServiceMock{}

type ledgerServiceMock struct {
	IngestFunc            func(ctx context.Context, in ledger.IngestInput) (ledger.IngestResult, error)
	GetFunc               func(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error)
	ListFunc              func(ctx context.Context, input ledger.ListInput) (ledger.ListResult, error)
	UpdateFunc            func(ctx context.Context, input ledger.UpdateInput) (domain.EvidenceRecord, error)
	SealFunc              func(ctx context.Context, evidenceID string) (ledger.SealResult, error)
	QuarantineFunc        func(ctx context.Context, input ledger.QuarantineInput) (ledger.QuarantineResult, error)
	HistoryFunc           func(ctx context.Context, evidenceID string) ([]domain.AuditEvent, error)
	RecordEventFunc       func(ctx context.Context, input ledger.RecordEventInput) (domain.AuditEvent, error)
	RunComplianceGateFunc func(ctx context.Context, evidenceID string) (compliance.Report, error)
	RunTenantGateFunc     func(ctx context.Context) (compliance.TenantReport, error)
	ImportFixturesFunc    func(ctx context.Context, fixtures []ledger.FixtureInput) ([]ledger.IngestResult, error)
	DataModeFunc          func() domain.DataMode

	calls struct {
		Ingest []struct {
			Ctx context.Context
			In  ledger.IngestInput
		}
		Get []struct {
			Ctx        context.Context
			EvidenceID string
		}
		List []struct {
			Ctx   context.Context
			Input ledger.ListInput
		}
		Update []struct {
			Ctx   context.Context
			Input ledger.UpdateInput
		}
		Seal []struct {
			Ctx        context.Context
			EvidenceID string
		}
		Quarantine []struct {
			Ctx   context.Context
			Input ledger.QuarantineInput
		}
		History []struct {
			Ctx        context.Context
			EvidenceID string
		}
		RecordEvent []struct {
			Ctx   context.Context
			Input ledger.RecordEventInput
		}
		RunComplianceGate []struct {
			Ctx        context.Context
			EvidenceID string
		}
		RunTenantGate []struct {
			Ctx context.Context
		}
		ImportFixtures []struct {
			Ctx      context.Context
			Fixtures []ledger.FixtureInput
		}
		DataMode []struct {
		}
	}
	lockIngest            sync.RWMutex
	lockGet               sync.RWMutex
	lockList              sync.RWMutex
	lockUpdate            sync.RWMutex
	lockSeal              sync.RWMutex
	lockQuarantine        sync.RWMutex
	lockHistory           sync.RWMutex
	lockRecordEvent       sync.RWMutex
	lockRunComplianceGate sync.RWMutex
	lockRunTenantGate     sync.RWMutex
	lockImportFixtures    sync.RWMutex
	lockDataMode          sync.RWMutex
}

func (mock *ledgerServiceMock) Ingest(ctx context.Context, in ledger.IngestInput) (ledger.IngestResult, error) {
	if mock.IngestFunc == nil {
		panic("ledgerServiceMock.IngestFunc: method is nil but ledgerService.Ingest was just called")
	}
	callInfo := struct {
		Ctx context.Context
		In  ledger.IngestInput
	}{Ctx: ctx, In: in}
	mock.lockIngest.Lock()
	mock.calls.Ingest = append(mock.calls.Ingest, callInfo)
	mock.lockIngest.Unlock()
	return mock.IngestFunc(ctx, in)
}

func (mock *ledgerServiceMock) IngestCalls() []struct {
	Ctx context.Context
	In  ledger.IngestInput
} {
	mock.lockIngest.RLock()
	calls := mock.calls.Ingest
	mock.lockIngest.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Get(ctx context.Context, evidenceID string) (domain.EvidenceRecord, error) {
	if mock.GetFunc == nil {
		panic("ledgerServiceMock.GetFunc: method is nil but ledgerService.Get was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx, evidenceID)
}

func (mock *ledgerServiceMock) GetCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) List(ctx context.Context, input ledger.ListInput) (ledger.ListResult, error) {
	if mock.ListFunc == nil {
		panic("ledgerServiceMock.ListFunc: method is nil but ledgerService.List was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input ledger.ListInput
	}{Ctx: ctx, Input: input}
	mock.lockList.Lock()
	mock.calls.List = append(mock.calls.List, callInfo)
	mock.lockList.Unlock()
	return mock.ListFunc(ctx, input)
}

func (mock *ledgerServiceMock) ListCalls() []struct {
	Ctx   context.Context
	Input ledger.ListInput
} {
	mock.lockList.RLock()
	calls := mock.calls.List
	mock.lockList.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Update(ctx context.Context, input ledger.UpdateInput) (domain.EvidenceRecord, error) {
	if mock.UpdateFunc == nil {
		panic("ledgerServiceMock.UpdateFunc: method is nil but ledgerService.Update was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input ledger.UpdateInput
	}{Ctx: ctx, Input: input}
	mock.lockUpdate.Lock()
	mock.calls.Update = append(mock.calls.Update, callInfo)
	mock.lockUpdate.Unlock()
	return mock.UpdateFunc(ctx, input)
}

func (mock *ledgerServiceMock) UpdateCalls() []struct {
	Ctx   context.Context
	Input ledger.UpdateInput
} {
	mock.lockUpdate.RLock()
	calls := mock.calls.Update
	mock.lockUpdate.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Seal(ctx context.Context, evidenceID string) (ledger.SealResult, error) {
	if mock.SealFunc == nil {
		panic("ledgerServiceMock.SealFunc: method is nil but ledgerService.Seal was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockSeal.Lock()
	mock.calls.Seal = append(mock.calls.Seal, callInfo)
	mock.lockSeal.Unlock()
	return mock.SealFunc(ctx, evidenceID)
}

func (mock *ledgerServiceMock) SealCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockSeal.RLock()
	calls := mock.calls.Seal
	mock.lockSeal.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) Quarantine(ctx context.Context, input ledger.QuarantineInput) (ledger.QuarantineResult, error) {
	if mock.QuarantineFunc == nil {
		panic("ledgerServiceMock.QuarantineFunc: method is nil but ledgerService.Quarantine was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input ledger.QuarantineInput
	}{Ctx: ctx, Input: input}
	mock.lockQuarantine.Lock()
	mock.calls.Quarantine = append(mock.calls.Quarantine, callInfo)
	mock.lockQuarantine.Unlock()
	return mock.QuarantineFunc(ctx, input)
}

func (mock *ledgerServiceMock) QuarantineCalls() []struct {
	Ctx   context.Context
	Input ledger.QuarantineInput
} {
	mock.lockQuarantine.RLock()
	calls := mock.calls.Quarantine
	mock.lockQuarantine.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) History(ctx context.Context, evidenceID string) ([]domain.AuditEvent, error) {
	if mock.HistoryFunc == nil {
		panic("ledgerServiceMock.HistoryFunc: method is nil but ledgerService.History was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockHistory.Lock()
	mock.calls.History = append(mock.calls.History, callInfo)
	mock.lockHistory.Unlock()
	return mock.HistoryFunc(ctx, evidenceID)
}

func (mock *ledgerServiceMock) HistoryCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockHistory.RLock()
	calls := mock.calls.History
	mock.lockHistory.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) RecordEvent(ctx context.Context, input ledger.RecordEventInput) (domain.AuditEvent, error) {
	if mock.RecordEventFunc == nil {
		panic("ledgerServiceMock.RecordEventFunc: method is nil but ledgerService.RecordEvent was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Input ledger.RecordEventInput
	}{Ctx: ctx, Input: input}
	mock.lockRecordEvent.Lock()
	mock.calls.RecordEvent = append(mock.calls.RecordEvent, callInfo)
	mock.lockRecordEvent.Unlock()
	return mock.RecordEventFunc(ctx, input)
}

func (mock *ledgerServiceMock) RecordEventCalls() []struct {
	Ctx   context.Context
	Input ledger.RecordEventInput
} {
	mock.lockRecordEvent.RLock()
	calls := mock.calls.RecordEvent
	mock.lockRecordEvent.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) RunComplianceGate(ctx context.Context, evidenceID string) (compliance.Report, error) {
	if mock.RunComplianceGateFunc == nil {
		panic("ledgerServiceMock.RunComplianceGateFunc: method is nil but ledgerService.RunComplianceGate was just called")
	}
	callInfo := struct {
		Ctx        context.Context
		EvidenceID string
	}{Ctx: ctx, EvidenceID: evidenceID}
	mock.lockRunComplianceGate.Lock()
	mock.calls.RunComplianceGate = append(mock.calls.RunComplianceGate, callInfo)
	mock.lockRunComplianceGate.Unlock()
	return mock.RunComplianceGateFunc(ctx, evidenceID)
}

func (mock *ledgerServiceMock) RunComplianceGateCalls() []struct {
	Ctx        context.Context
	EvidenceID string
} {
	mock.lockRunComplianceGate.RLock()
	calls := mock.calls.RunComplianceGate
	mock.lockRunComplianceGate.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) RunTenantGate(ctx context.Context) (compliance.TenantReport, error) {
	if mock.RunTenantGateFunc == nil {
		panic("ledgerServiceMock.RunTenantGateFunc: method is nil but ledgerService.RunTenantGate was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{Ctx: ctx}
	mock.lockRunTenantGate.Lock()
	mock.calls.RunTenantGate = append(mock.calls.RunTenantGate, callInfo)
	mock.lockRunTenantGate.Unlock()
	return mock.RunTenantGateFunc(ctx)
}

func (mock *ledgerServiceMock) RunTenantGateCalls() []struct {
	Ctx context.Context
} {
	mock.lockRunTenantGate.RLock()
	calls := mock.calls.RunTenantGate
	mock.lockRunTenantGate.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) ImportFixtures(ctx context.Context, fixtures []ledger.FixtureInput) ([]ledger.IngestResult, error) {
	if mock.ImportFixturesFunc == nil {
		panic("ledgerServiceMock.ImportFixturesFunc: method is nil but ledgerService.ImportFixtures was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Fixtures []ledger.FixtureInput
	}{Ctx: ctx, Fixtures: fixtures}
	mock.lockImportFixtures.Lock()
	mock.calls.ImportFixtures = append(mock.calls.ImportFixtures, callInfo)
	mock.lockImportFixtures.Unlock()
	return mock.ImportFixturesFunc(ctx, fixtures)
}

func (mock *ledgerServiceMock) ImportFixturesCalls() []struct {
	Ctx      context.Context
	Fixtures []ledger.FixtureInput
} {
	mock.lockImportFixtures.RLock()
	calls := mock.calls.ImportFixtures
	mock.lockImportFixtures.RUnlock()
	return calls
}

func (mock *ledgerServiceMock) DataMode() domain.DataMode {
	if mock.DataModeFunc == nil {
		panic("ledgerServiceMock.DataModeFunc: method is nil but ledgerService.DataMode was just called")
	}
	callInfo := struct {
	}{}
	mock.lockDataMode.Lock()
	mock.calls.DataMode = append(mock.calls.DataMode, callInfo)
	mock.lockDataMode.Unlock()
	return mock.DataModeFunc()
}

func (mock *ledgerServiceMock) DataModeCalls() []struct {
} {
	mock.lockDataMode.RLock()
	calls := mock.calls.DataMode
	mock.lockDataMode.RUnlock()
	return calls
}
