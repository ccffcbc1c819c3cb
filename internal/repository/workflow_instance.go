package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

const INSTANCE_COLUMNS = ` id, reference, definition_id, workflow_type, entity_type, entity_id,
		       status, started_by, started_at, completed_at `

type WorkflowInstanceRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewWorkflowInstanceRepository(db *sql.DB, clock core.Clock) *WorkflowInstanceRepository {
	return &WorkflowInstanceRepository{db: db, clock: clock}
}

// CreateWithSteps inserts the instance and all of its step executions in a
// single transaction so a failed start leaves no partial rows.
func (r *WorkflowInstanceRepository) CreateWithSteps(inst *domain.WorkflowInstance, steps []domain.StepExecution) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	vals := []interface{}{inst.Reference, inst.DefinitionID, inst.WorkflowType, inst.EntityType, inst.EntityID,
		inst.Status, inst.StartedBy, formatDateInDatabase(inst.StartedAt), formatDateInDatabaseNull(inst.CompletedAt)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO workflow_instances (
		reference, definition_id, workflow_type, entity_type, entity_id,
		status, started_by, started_at, completed_at
	) VALUES (` + strings.Join(pps, ", ") + `)`
	id, err := execInsert(tx, base, vals...)
	if err != nil {
		return 0, err
	}
	inst.ID = id

	stepInsert := `
		INSERT INTO workflow_step_executions (
			instance_id, step_order, step_name, required_role, status,
			assigned_to, started_at, completed_at, comments, action_taken
		) VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `,
			` + placeholder(6) + `, ` + placeholder(7) + `, ` + placeholder(8) + `, ` + placeholder(9) + `, ` + placeholder(10) + `)
	`
	for i := range steps {
		steps[i].InstanceID = id
		s := &steps[i]
		if _, err := tx.Exec(stepInsert, s.InstanceID, s.StepOrder, s.StepName, s.RequiredRole, s.Status,
			s.AssignedTo, formatDateInDatabaseNull(s.StartedAt), formatDateInDatabaseNull(s.CompletedAt), s.Comments, s.ActionTaken); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *WorkflowInstanceRepository) scanInstance(row *sql.Row) (*domain.WorkflowInstance, error) {
	var inst domain.WorkflowInstance
	err := row.Scan(
		&inst.ID,
		&inst.Reference,
		&inst.DefinitionID,
		&inst.WorkflowType,
		&inst.EntityType,
		&inst.EntityID,
		&inst.Status,
		&inst.StartedBy,
		&inst.StartedAt,
		&inst.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *WorkflowInstanceRepository) FindByID(id int64) (*domain.WorkflowInstance, error) {
	query := `SELECT ` + INSTANCE_COLUMNS + ` FROM workflow_instances WHERE id = ` + placeholder(1)
	return r.scanInstance(r.db.QueryRow(query, id))
}

func (r *WorkflowInstanceRepository) FindByReference(reference string) (*domain.WorkflowInstance, error) {
	query := `SELECT ` + INSTANCE_COLUMNS + ` FROM workflow_instances WHERE reference = ` + placeholder(1)
	return r.scanInstance(r.db.QueryRow(query, reference))
}

// FindLatestByEntity returns the most recently started instance bound to
// the given business entity.
func (r *WorkflowInstanceRepository) FindLatestByEntity(entityType string, entityID string) (*domain.WorkflowInstance, error) {
	query := `
		SELECT ` + INSTANCE_COLUMNS + `
		FROM workflow_instances
		WHERE entity_type = ` + placeholder(1) + ` AND entity_id = ` + placeholder(2) + `
		ORDER BY id DESC
		LIMIT 1
	`
	return r.scanInstance(r.db.QueryRow(query, entityType, entityID))
}

// FindActiveByEntity returns the IN_PROGRESS instance of the given workflow
// type for an entity, or sql.ErrNoRows.
func (r *WorkflowInstanceRepository) FindActiveByEntity(workflowType string, entityType string, entityID string) (*domain.WorkflowInstance, error) {
	query := `
		SELECT ` + INSTANCE_COLUMNS + `
		FROM workflow_instances
		WHERE workflow_type = ` + placeholder(1) + ` AND entity_type = ` + placeholder(2) + ` AND entity_id = ` + placeholder(3) + `
		  AND status = '` + domain.InstanceStatusInProgress + `'
		ORDER BY id DESC
		LIMIT 1
	`
	return r.scanInstance(r.db.QueryRow(query, workflowType, entityType, entityID))
}

// FinishIfInProgress moves an instance to a terminal status with a
// conditional update guarded by the expected current status. Returns false
// when the instance was already terminal, so racing finishers cannot both
// win.
func (r *WorkflowInstanceRepository) FinishIfInProgress(id int64, status string) bool {
	query := `
		UPDATE workflow_instances
		SET status = ` + placeholder(1) + `, completed_at = ` + placeholder(2) + `
		WHERE id = ` + placeholder(3) + ` AND status = '` + domain.InstanceStatusInProgress + `'
	`
	result, err := r.db.Exec(query, status, formatDateInDatabase(r.clock.Now()), id)
	if err != nil {
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// Search returns instances matching the request filters, newest first.
func (r *WorkflowInstanceRepository) Search(req models.SearchInstancesRequest) (*[]domain.WorkflowInstance, error) {
	var clauses []string
	var args []interface{}

	if req.Status != "" {
		args = append(args, req.Status)
		clauses = append(clauses, fmt.Sprintf("status = %s", placeholder(len(args))))
	}
	if req.WorkflowType != "" {
		args = append(args, req.WorkflowType)
		clauses = append(clauses, fmt.Sprintf("workflow_type = %s", placeholder(len(args))))
	}
	if req.EntityType != "" {
		args = append(args, req.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type = %s", placeholder(len(args))))
	}
	if req.EntityID != "" {
		args = append(args, req.EntityID)
		clauses = append(clauses, fmt.Sprintf("entity_id = %s", placeholder(len(args))))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	limits := ""
	if req.Limit > 0 {
		limits = fmt.Sprintf(" LIMIT %d OFFSET %d", req.Limit, req.Offset)
	}

	query := `SELECT ` + INSTANCE_COLUMNS + ` FROM workflow_instances` + where + ` ORDER BY id DESC` + limits

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []domain.WorkflowInstance
	for rows.Next() {
		var inst domain.WorkflowInstance
		if err := rows.Scan(
			&inst.ID,
			&inst.Reference,
			&inst.DefinitionID,
			&inst.WorkflowType,
			&inst.EntityType,
			&inst.EntityID,
			&inst.Status,
			&inst.StartedBy,
			&inst.StartedAt,
			&inst.CompletedAt,
		); err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return &instances, rows.Err()
}
