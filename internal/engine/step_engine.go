package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

// ActResult carries the post-transition step execution and instance.
type ActResult struct {
	StepExecution domain.StepExecution
	Instance      domain.WorkflowInstance
}

// StepEngine is the state machine that advances step executions and
// instance status. Step states: PENDING -> IN_PROGRESS -> COMPLETED or
// REJECTED. Instance states: IN_PROGRESS -> COMPLETED or REJECTED. All
// transitions are conditional updates keyed on the expected prior status,
// so two racing act() calls on the same step resolve to exactly one
// winner.
type StepEngine struct {
	steps     StepExecutionRepo
	instances InstanceRepo
	gate      *RoleGate
	audit     *AuditLogger
	clock     core.Clock
}

func NewStepEngine(steps StepExecutionRepo, instances InstanceRepo, gate *RoleGate,
	audit *AuditLogger, clock core.Clock) *StepEngine {
	return &StepEngine{
		steps:     steps,
		instances: instances,
		gate:      gate,
		audit:     audit,
		clock:     clock,
	}
}

// Act applies an approve or reject decision to the step execution.
// Progression follows the step orders snapshotted at instance creation,
// never the live definition. Approving the highest-order step completes
// the instance; rejecting any step terminates it and freezes all later
// steps at PENDING.
func (e *StepEngine) Act(stepExecutionID int64, actor string, action string, comment string) (*ActResult, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}
	action = strings.ToUpper(action)
	if action != domain.ActionApprove && action != domain.ActionReject {
		return nil, fmt.Errorf("%w: action must be %s or %s", ErrValidation, domain.ActionApprove, domain.ActionReject)
	}

	se, err := e.steps.FindByID(stepExecutionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: step execution %d", ErrNotFound, stepExecutionID)
		}
		return nil, err
	}
	if se.Status != domain.StepStatusInProgress {
		return nil, fmt.Errorf("%w: step execution %d is %s, not %s", ErrInvalidState, se.ID, se.Status, domain.StepStatusInProgress)
	}

	if !e.gate.Check(actor, se.RequiredRole) {
		return nil, fmt.Errorf("%w: actor %q lacks role %q for step %q", ErrForbidden, actor, se.RequiredRole, se.StepName)
	}

	terminal := domain.StepStatusCompleted
	auditAction := AuditStepApproved
	if action == domain.ActionReject {
		terminal = domain.StepStatusRejected
		auditAction = AuditStepRejected
	}

	var comments sql.NullString
	if comment != "" {
		comments = sql.NullString{String: comment, Valid: true}
	}

	// Conditional update on the expected IN_PROGRESS status; the loser of a
	// race observes zero rows updated and surfaces a conflict instead of
	// double-advancing the instance.
	before := *se
	if !e.steps.CompleteIfInProgress(se.ID, terminal, actor, action, comments) {
		return nil, fmt.Errorf("%w: step execution %d was transitioned concurrently", ErrConflict, se.ID)
	}
	after, err := e.steps.FindByID(se.ID)
	if err != nil {
		return nil, err
	}
	e.audit.Append(auditAction, "workflow_step_execution", fmt.Sprint(se.ID), actor, before, after, "")

	if action == domain.ActionReject {
		e.finishInstance(se.InstanceID, domain.InstanceStatusRejected, actor)
	} else {
		maxOrder, err := e.steps.MaxStepOrder(se.InstanceID)
		if err != nil {
			return nil, err
		}
		if se.StepOrder >= maxOrder {
			e.finishInstance(se.InstanceID, domain.InstanceStatusCompleted, actor)
		} else if !e.steps.ActivateIfPending(se.InstanceID, se.StepOrder+1) {
			// The next step can only be non-PENDING if the one-active-step
			// invariant was already broken outside this engine.
			slog.Error("Next step was not pending after approval", "instance_id", se.InstanceID, "step_order", se.StepOrder+1)
		}
	}

	inst, err := e.instances.FindByID(se.InstanceID)
	if err != nil {
		return nil, err
	}
	return &ActResult{StepExecution: *after, Instance: *inst}, nil
}

func (e *StepEngine) finishInstance(instanceID int64, status string, actor string) {
	auditAction := AuditInstanceCompleted
	if status == domain.InstanceStatusRejected {
		auditAction = AuditInstanceRejected
	}
	if !e.instances.FinishIfInProgress(instanceID, status) {
		slog.Error("Instance was not in progress when finishing", "instance_id", instanceID, "status", status)
		return
	}
	after, _ := e.instances.FindByID(instanceID)
	e.audit.Append(auditAction, "workflow_instance", fmt.Sprint(instanceID), actor, nil, after, "")
	slog.Info("Workflow instance finished", "instance_id", instanceID, "status", status)
}
