package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// InstanceState is the read model for one entity's workflow: the instance
// plus its step executions in ascending order.
type InstanceState struct {
	Instance       domain.WorkflowInstance
	StepExecutions []domain.StepExecution
}

// InstanceManager instantiates definitions against business entities and
// exposes read state to hosting collaborators.
type InstanceManager struct {
	definitions *DefinitionStore
	instances   InstanceRepo
	steps       StepExecutionRepo
	audit       *AuditLogger
	clock       core.Clock
}

func NewInstanceManager(definitions *DefinitionStore, instances InstanceRepo, steps StepExecutionRepo,
	audit *AuditLogger, clock core.Clock) *InstanceManager {
	return &InstanceManager{
		definitions: definitions,
		instances:   instances,
		steps:       steps,
		audit:       audit,
		clock:       clock,
	}
}

// Start loads the active definition for the workflow type and creates an
// IN_PROGRESS instance with one step execution per step, snapshotting step
// name and required role so later definition edits never reach this
// instance. The first step execution starts IN_PROGRESS, the rest PENDING.
// At most one IN_PROGRESS instance is allowed per (workflow type, entity);
// a duplicate start fails ErrConflict.
func (m *InstanceManager) Start(workflowType string, module string, entityType string, entityID string, startedBy string) (*domain.WorkflowInstance, error) {
	if workflowType == "" || entityType == "" || entityID == "" {
		return nil, fmt.Errorf("%w: workflowType, entityType and entityId are required", ErrValidation)
	}

	detail, err := m.definitions.GetActive(workflowType, module)
	if err != nil {
		return nil, err
	}

	existing, err := m.instances.FindActiveByEntity(workflowType, entityType, entityID)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: entity %s/%s already has instance %d in progress", ErrConflict, entityType, entityID, existing.ID)
	}

	now := m.clock.Now().UTC()
	inst := &domain.WorkflowInstance{
		Reference:    uuid.NewString(),
		DefinitionID: detail.Definition.ID,
		WorkflowType: workflowType,
		EntityType:   entityType,
		EntityID:     entityID,
		Status:       domain.InstanceStatusInProgress,
		StartedBy:    startedBy,
		StartedAt:    now,
	}

	executions := make([]domain.StepExecution, 0, len(detail.Steps))
	for _, step := range detail.Steps {
		se := domain.StepExecution{
			StepOrder:    step.StepOrder,
			StepName:     step.Name,
			RequiredRole: step.RequiredRole,
			Status:       domain.StepStatusPending,
		}
		if step.StepOrder == 1 {
			se.Status = domain.StepStatusInProgress
			se.StartedAt = sql.NullTime{Time: now, Valid: true}
		}
		executions = append(executions, se)
	}

	id, err := m.instances.CreateWithSteps(inst, executions)
	if err != nil {
		// The unique index on active instances catches the race two
		// concurrent starts can win past the lookup above.
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: entity %s/%s already has an instance in progress", ErrConflict, entityType, entityID)
		}
		return nil, err
	}
	slog.Info("Started workflow instance", "id", id, "reference", inst.Reference,
		"workflow_type", workflowType, "entity_type", entityType, "entity_id", entityID)
	m.audit.Append(AuditInstanceStarted, "workflow_instance", fmt.Sprint(id), startedBy, nil, inst,
		fmt.Sprintf(`{"definition":%q,"steps":%d}`, detail.Definition.Name, len(executions)))
	return inst, nil
}

// GetState returns the most recent instance bound to the entity with its
// ordered step executions, or ErrNotFound.
func (m *InstanceManager) GetState(entityType string, entityID string) (*InstanceState, error) {
	inst, err := m.instances.FindLatestByEntity(entityType, entityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: no instance for entity %s/%s", ErrNotFound, entityType, entityID)
		}
		return nil, err
	}
	return m.stateOf(inst)
}

// GetStateByReference returns the state by the instance's public uuid.
func (m *InstanceManager) GetStateByReference(reference string) (*InstanceState, error) {
	inst, err := m.instances.FindByReference(reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: no instance with reference %s", ErrNotFound, reference)
		}
		return nil, err
	}
	return m.stateOf(inst)
}

func (m *InstanceManager) stateOf(inst *domain.WorkflowInstance) (*InstanceState, error) {
	executions, err := m.steps.FindAllByInstanceID(inst.ID)
	if err != nil {
		return nil, err
	}
	state := &InstanceState{Instance: *inst}
	if executions != nil {
		state.StepExecutions = *executions
	}
	return state, nil
}

// Search returns instances matching the request filters.
func (m *InstanceManager) Search(req models.SearchInstancesRequest) (*[]domain.WorkflowInstance, error) {
	return m.instances.Search(req)
}

// isUniqueViolation matches unique constraint errors across the three
// drivers: lib/pq "duplicate key value violates unique constraint",
// go-sqlite3 "UNIQUE constraint failed", mysql "Duplicate entry".
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
