package engine

import (
	"database/sql"
	"time"

	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// DefinitionRepo defines the interface for workflow definition persistence,
// matching repository.WorkflowDefinitionRepository.
type DefinitionRepo interface {
	Create(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (int64, error)
	UpsertByName(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (bool, int64, error)
	FindActive(workflowType string, module string) (*domain.WorkflowDefinition, error)
	FindByID(id int64) (*domain.WorkflowDefinition, error)
	FindByName(name string) (*domain.WorkflowDefinition, error)
	FindAll() (*[]domain.WorkflowDefinition, error)
	LoadSteps(definitionID int64) ([]domain.WorkflowStep, error)
	LoadTransitions(definitionID int64) ([]domain.WorkflowTransition, error)
}

// InstanceRepo defines the interface for workflow instance persistence.
type InstanceRepo interface {
	CreateWithSteps(inst *domain.WorkflowInstance, steps []domain.StepExecution) (int64, error)
	FindByID(id int64) (*domain.WorkflowInstance, error)
	FindByReference(reference string) (*domain.WorkflowInstance, error)
	FindLatestByEntity(entityType string, entityID string) (*domain.WorkflowInstance, error)
	FindActiveByEntity(workflowType string, entityType string, entityID string) (*domain.WorkflowInstance, error)
	FinishIfInProgress(id int64, status string) bool
	Search(req models.SearchInstancesRequest) (*[]domain.WorkflowInstance, error)
}

// StepExecutionRepo defines the interface for step execution persistence.
type StepExecutionRepo interface {
	FindByID(id int64) (*domain.StepExecution, error)
	FindAllByInstanceID(instanceID int64) (*[]domain.StepExecution, error)
	CompleteIfInProgress(id int64, status string, actor string, action string, comments sql.NullString) bool
	ActivateIfPending(instanceID int64, stepOrder int) bool
	MaxStepOrder(instanceID int64) (int, error)
}

// RoleGrantRepo defines the interface for role grant persistence.
type RoleGrantRepo interface {
	Save(g *domain.RoleGrant) (int64, error)
	FindByID(id int64) (*domain.RoleGrant, error)
	HasActiveGrant(actorID string, role string) (bool, error)
	RevokeIfActive(id int64) bool
	FindAllByActor(actorID string) (*[]domain.RoleGrant, error)
}

// RoleRepo defines the interface for declared role persistence.
type RoleRepo interface {
	Upsert(role *domain.Role) error
	FindAll() (*[]domain.Role, error)
}

// AuditRepo defines the interface for audit record persistence.
type AuditRepo interface {
	Save(a *domain.AuditRecord) (int64, error)
	FindAllByResource(resourceType string, resourceID string) (*[]domain.AuditRecord, error)
}

// UserRepo defines the interface for user persistence.
type UserRepo interface {
	FindBySessionID(sessionID string, now time.Time) (*domain.User, error)
	FindByApiKey(apiKey string) (*domain.User, error)
	FindByUsername(username string) (*domain.User, error)
	FindById(id int64) (*domain.User, error)
	FindAll() (*[]domain.User, error)
	Save(user *domain.User) (int64, error)
	DeleteById(id int64) error
	UpdateSession(userID int64, sessionID string, expiry time.Time) error
	ClearSessionBySessionID(sessionID string) error
}
