package repository

import (
	"database/sql"
	"log/slog"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

const STEP_EXECUTION_COLUMNS = ` id, instance_id, step_order, step_name, required_role, status,
		       assigned_to, started_at, completed_at, comments, action_taken `

type StepExecutionRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewStepExecutionRepository(db *sql.DB, clock core.Clock) *StepExecutionRepository {
	return &StepExecutionRepository{db: db, clock: clock}
}

func (r *StepExecutionRepository) FindByID(id int64) (*domain.StepExecution, error) {
	query := `SELECT ` + STEP_EXECUTION_COLUMNS + ` FROM workflow_step_executions WHERE id = ` + placeholder(1)
	var se domain.StepExecution
	err := r.db.QueryRow(query, id).Scan(
		&se.ID,
		&se.InstanceID,
		&se.StepOrder,
		&se.StepName,
		&se.RequiredRole,
		&se.Status,
		&se.AssignedTo,
		&se.StartedAt,
		&se.CompletedAt,
		&se.Comments,
		&se.ActionTaken,
	)
	if err != nil {
		return nil, err
	}
	return &se, nil
}

// FindAllByInstanceID returns an instance's step executions in ascending
// step order.
func (r *StepExecutionRepository) FindAllByInstanceID(instanceID int64) (*[]domain.StepExecution, error) {
	query := `
		SELECT ` + STEP_EXECUTION_COLUMNS + `
		FROM workflow_step_executions
		WHERE instance_id = ` + placeholder(1) + `
		ORDER BY step_order ASC
	`
	rows, err := r.db.Query(query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var executions []domain.StepExecution
	for rows.Next() {
		var se domain.StepExecution
		if err := rows.Scan(
			&se.ID,
			&se.InstanceID,
			&se.StepOrder,
			&se.StepName,
			&se.RequiredRole,
			&se.Status,
			&se.AssignedTo,
			&se.StartedAt,
			&se.CompletedAt,
			&se.Comments,
			&se.ActionTaken,
		); err != nil {
			return nil, err
		}
		executions = append(executions, se)
	}
	return &executions, rows.Err()
}

// CompleteIfInProgress applies a terminal status to a step execution with a
// conditional update keyed on the expected IN_PROGRESS status. Of two
// racing callers exactly one sees rowsAffected == 1; the loser must treat
// the step as already transitioned.
func (r *StepExecutionRepository) CompleteIfInProgress(id int64, status string, actor string, action string, comments sql.NullString) bool {
	query := `
		UPDATE workflow_step_executions
		SET status = ` + placeholder(1) + `, assigned_to = ` + placeholder(2) + `, action_taken = ` + placeholder(3) + `,
		    comments = ` + placeholder(4) + `, completed_at = ` + placeholder(5) + `
		WHERE id = ` + placeholder(6) + ` AND status = '` + domain.StepStatusInProgress + `'
	`
	result, err := r.db.Exec(query, status, actor, action, comments, formatDateInDatabase(r.clock.Now()), id)
	if err != nil {
		slog.Error("Failed to complete step execution", "error", err, "id", id, "status", status)
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// ActivateIfPending moves the step execution at the given order to
// IN_PROGRESS, guarded by its expected PENDING status.
func (r *StepExecutionRepository) ActivateIfPending(instanceID int64, stepOrder int) bool {
	query := `
		UPDATE workflow_step_executions
		SET status = '` + domain.StepStatusInProgress + `', started_at = ` + placeholder(1) + `
		WHERE instance_id = ` + placeholder(2) + ` AND step_order = ` + placeholder(3) + ` AND status = '` + domain.StepStatusPending + `'
	`
	result, err := r.db.Exec(query, formatDateInDatabase(r.clock.Now()), instanceID, stepOrder)
	if err != nil {
		slog.Error("Failed to activate step execution", "error", err, "instance_id", instanceID, "step_order", stepOrder)
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// MaxStepOrder returns the highest step order snapshotted for an instance.
func (r *StepExecutionRepository) MaxStepOrder(instanceID int64) (int, error) {
	query := `
		SELECT MAX(step_order)
		FROM workflow_step_executions
		WHERE instance_id = ` + placeholder(1) + `
	`
	var max sql.NullInt64
	if err := r.db.QueryRow(query, instanceID).Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, sql.ErrNoRows
	}
	return int(max.Int64), nil
}
