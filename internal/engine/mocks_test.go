package engine

import (
	"database/sql"
	"time"

	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// Shared func-field mocks for the engine tests. Unset funcs fall back to
// benign defaults.

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.now.Add(d)
	return ch
}

func (f *fakeClock) Sleep(d time.Duration) {}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
}

type MockDefinitionRepo struct {
	CreateFunc          func(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (int64, error)
	UpsertByNameFunc    func(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (bool, int64, error)
	FindActiveFunc      func(workflowType string, module string) (*domain.WorkflowDefinition, error)
	FindByIDFunc        func(id int64) (*domain.WorkflowDefinition, error)
	FindByNameFunc      func(name string) (*domain.WorkflowDefinition, error)
	FindAllFunc         func() (*[]domain.WorkflowDefinition, error)
	LoadStepsFunc       func(definitionID int64) ([]domain.WorkflowStep, error)
	LoadTransitionsFunc func(definitionID int64) ([]domain.WorkflowTransition, error)
}

func (m *MockDefinitionRepo) Create(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (int64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(def, steps, transitions)
	}
	return 1, nil
}
func (m *MockDefinitionRepo) UpsertByName(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (bool, int64, error) {
	if m.UpsertByNameFunc != nil {
		return m.UpsertByNameFunc(def, steps, transitions)
	}
	return true, 1, nil
}
func (m *MockDefinitionRepo) FindActive(workflowType string, module string) (*domain.WorkflowDefinition, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(workflowType, module)
	}
	return nil, sql.ErrNoRows
}
func (m *MockDefinitionRepo) FindByID(id int64) (*domain.WorkflowDefinition, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, sql.ErrNoRows
}
func (m *MockDefinitionRepo) FindByName(name string) (*domain.WorkflowDefinition, error) {
	if m.FindByNameFunc != nil {
		return m.FindByNameFunc(name)
	}
	return nil, sql.ErrNoRows
}
func (m *MockDefinitionRepo) FindAll() (*[]domain.WorkflowDefinition, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc()
	}
	return nil, nil
}
func (m *MockDefinitionRepo) LoadSteps(definitionID int64) ([]domain.WorkflowStep, error) {
	if m.LoadStepsFunc != nil {
		return m.LoadStepsFunc(definitionID)
	}
	return nil, nil
}
func (m *MockDefinitionRepo) LoadTransitions(definitionID int64) ([]domain.WorkflowTransition, error) {
	if m.LoadTransitionsFunc != nil {
		return m.LoadTransitionsFunc(definitionID)
	}
	return nil, nil
}

type MockInstanceRepo struct {
	CreateWithStepsFunc    func(inst *domain.WorkflowInstance, steps []domain.StepExecution) (int64, error)
	FindByIDFunc           func(id int64) (*domain.WorkflowInstance, error)
	FindByReferenceFunc    func(reference string) (*domain.WorkflowInstance, error)
	FindLatestByEntityFunc func(entityType string, entityID string) (*domain.WorkflowInstance, error)
	FindActiveByEntityFunc func(workflowType string, entityType string, entityID string) (*domain.WorkflowInstance, error)
	FinishIfInProgressFunc func(id int64, status string) bool
	SearchFunc             func(req models.SearchInstancesRequest) (*[]domain.WorkflowInstance, error)
}

func (m *MockInstanceRepo) CreateWithSteps(inst *domain.WorkflowInstance, steps []domain.StepExecution) (int64, error) {
	if m.CreateWithStepsFunc != nil {
		return m.CreateWithStepsFunc(inst, steps)
	}
	inst.ID = 1
	return 1, nil
}
func (m *MockInstanceRepo) FindByID(id int64) (*domain.WorkflowInstance, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return &domain.WorkflowInstance{ID: id, Status: domain.InstanceStatusInProgress}, nil
}
func (m *MockInstanceRepo) FindByReference(reference string) (*domain.WorkflowInstance, error) {
	if m.FindByReferenceFunc != nil {
		return m.FindByReferenceFunc(reference)
	}
	return nil, sql.ErrNoRows
}
func (m *MockInstanceRepo) FindLatestByEntity(entityType string, entityID string) (*domain.WorkflowInstance, error) {
	if m.FindLatestByEntityFunc != nil {
		return m.FindLatestByEntityFunc(entityType, entityID)
	}
	return nil, sql.ErrNoRows
}
func (m *MockInstanceRepo) FindActiveByEntity(workflowType string, entityType string, entityID string) (*domain.WorkflowInstance, error) {
	if m.FindActiveByEntityFunc != nil {
		return m.FindActiveByEntityFunc(workflowType, entityType, entityID)
	}
	return nil, sql.ErrNoRows
}
func (m *MockInstanceRepo) FinishIfInProgress(id int64, status string) bool {
	if m.FinishIfInProgressFunc != nil {
		return m.FinishIfInProgressFunc(id, status)
	}
	return true
}
func (m *MockInstanceRepo) Search(req models.SearchInstancesRequest) (*[]domain.WorkflowInstance, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(req)
	}
	return nil, nil
}

type MockStepExecutionRepo struct {
	FindByIDFunc             func(id int64) (*domain.StepExecution, error)
	FindAllByInstanceIDFunc  func(instanceID int64) (*[]domain.StepExecution, error)
	CompleteIfInProgressFunc func(id int64, status string, actor string, action string, comments sql.NullString) bool
	ActivateIfPendingFunc    func(instanceID int64, stepOrder int) bool
	MaxStepOrderFunc         func(instanceID int64) (int, error)
}

func (m *MockStepExecutionRepo) FindByID(id int64) (*domain.StepExecution, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, sql.ErrNoRows
}
func (m *MockStepExecutionRepo) FindAllByInstanceID(instanceID int64) (*[]domain.StepExecution, error) {
	if m.FindAllByInstanceIDFunc != nil {
		return m.FindAllByInstanceIDFunc(instanceID)
	}
	return nil, nil
}
func (m *MockStepExecutionRepo) CompleteIfInProgress(id int64, status string, actor string, action string, comments sql.NullString) bool {
	if m.CompleteIfInProgressFunc != nil {
		return m.CompleteIfInProgressFunc(id, status, actor, action, comments)
	}
	return true
}
func (m *MockStepExecutionRepo) ActivateIfPending(instanceID int64, stepOrder int) bool {
	if m.ActivateIfPendingFunc != nil {
		return m.ActivateIfPendingFunc(instanceID, stepOrder)
	}
	return true
}
func (m *MockStepExecutionRepo) MaxStepOrder(instanceID int64) (int, error) {
	if m.MaxStepOrderFunc != nil {
		return m.MaxStepOrderFunc(instanceID)
	}
	return 1, nil
}

type MockRoleGrantRepo struct {
	SaveFunc           func(g *domain.RoleGrant) (int64, error)
	FindByIDFunc       func(id int64) (*domain.RoleGrant, error)
	HasActiveGrantFunc func(actorID string, role string) (bool, error)
	RevokeIfActiveFunc func(id int64) bool
	FindAllByActorFunc func(actorID string) (*[]domain.RoleGrant, error)
}

func (m *MockRoleGrantRepo) Save(g *domain.RoleGrant) (int64, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(g)
	}
	return 1, nil
}
func (m *MockRoleGrantRepo) FindByID(id int64) (*domain.RoleGrant, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, sql.ErrNoRows
}
func (m *MockRoleGrantRepo) HasActiveGrant(actorID string, role string) (bool, error) {
	if m.HasActiveGrantFunc != nil {
		return m.HasActiveGrantFunc(actorID, role)
	}
	return false, nil
}
func (m *MockRoleGrantRepo) RevokeIfActive(id int64) bool {
	if m.RevokeIfActiveFunc != nil {
		return m.RevokeIfActiveFunc(id)
	}
	return true
}
func (m *MockRoleGrantRepo) FindAllByActor(actorID string) (*[]domain.RoleGrant, error) {
	if m.FindAllByActorFunc != nil {
		return m.FindAllByActorFunc(actorID)
	}
	return nil, nil
}

type MockRoleRepo struct {
	UpsertFunc  func(role *domain.Role) error
	FindAllFunc func() (*[]domain.Role, error)
}

func (m *MockRoleRepo) Upsert(role *domain.Role) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(role)
	}
	return nil
}
func (m *MockRoleRepo) FindAll() (*[]domain.Role, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc()
	}
	return nil, nil
}

type MockAuditRepo struct {
	SaveFunc              func(a *domain.AuditRecord) (int64, error)
	FindAllByResourceFunc func(resourceType string, resourceID string) (*[]domain.AuditRecord, error)

	Saved []domain.AuditRecord
}

func (m *MockAuditRepo) Save(a *domain.AuditRecord) (int64, error) {
	m.Saved = append(m.Saved, *a)
	if m.SaveFunc != nil {
		return m.SaveFunc(a)
	}
	return int64(len(m.Saved)), nil
}
func (m *MockAuditRepo) FindAllByResource(resourceType string, resourceID string) (*[]domain.AuditRecord, error) {
	if m.FindAllByResourceFunc != nil {
		return m.FindAllByResourceFunc(resourceType, resourceID)
	}
	return nil, nil
}

func newTestAuditLogger() (*AuditLogger, *MockAuditRepo) {
	repo := &MockAuditRepo{}
	return NewAuditLogger(repo, newFakeClock()), repo
}
