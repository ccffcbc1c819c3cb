package repository

import (
	"database/sql"
	"strings"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

const DEFINITION_COLUMNS = ` id, name, description, workflow_type, module, version, active, created, updated `

type WorkflowDefinitionRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewWorkflowDefinitionRepository(db *sql.DB, clock core.Clock) *WorkflowDefinitionRepository {
	return &WorkflowDefinitionRepository{db: db, clock: clock}
}

// Create inserts a definition with its steps and transitions in one
// transaction. When the new definition is flagged active, any previously
// active definition for the same (workflow_type, module) is deactivated in
// the same transaction so at most one stays active.
func (r *WorkflowDefinitionRepository) Create(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if def.Active {
		deactivate := `
			UPDATE workflow_definitions
			SET active = ` + boolLiteral(false) + `, updated = ` + placeholder(1) + `
			WHERE workflow_type = ` + placeholder(2) + ` AND module = ` + placeholder(3) + ` AND active = ` + boolLiteral(true) + `
		`
		if _, err := tx.Exec(deactivate, formatDateInDatabase(r.clock.Now()), def.WorkflowType, def.Module); err != nil {
			return 0, err
		}
	}

	now := r.clock.Now().UTC()
	def.Created = now
	def.Updated = now
	id, err := insertDefinition(tx, def)
	if err != nil {
		return 0, err
	}
	def.ID = id

	if err := insertStepsAndTransitions(tx, id, steps, transitions); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// UpsertByName creates the definition if absent, otherwise updates its
// metadata and fully replaces its steps and transitions (delete then
// reinsert) so the caller's spec is the single source of truth. Returns
// true when a new row was created. An active upsert deactivates any other
// active definition for the same (workflow_type, module), keeping at most
// one active per type. The whole operation is one transaction, so a failed
// upsert leaves no partial rows behind.
func (r *WorkflowDefinitionRepository) UpsertByName(def *domain.WorkflowDefinition, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) (bool, int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	if def.Active {
		deactivate := `
			UPDATE workflow_definitions
			SET active = ` + boolLiteral(false) + `, updated = ` + placeholder(1) + `
			WHERE workflow_type = ` + placeholder(2) + ` AND module = ` + placeholder(3) + ` AND active = ` + boolLiteral(true) + `
			  AND name <> ` + placeholder(4) + `
		`
		if _, err := tx.Exec(deactivate, formatDateInDatabase(r.clock.Now()), def.WorkflowType, def.Module, def.Name); err != nil {
			return false, 0, err
		}
	}

	existing, err := findDefinition(tx, " WHERE name = "+placeholder(1), def.Name)
	if err != nil && err != sql.ErrNoRows {
		return false, 0, err
	}

	now := r.clock.Now().UTC()
	created := existing == nil
	if created {
		def.Created = now
		def.Updated = now
		id, err := insertDefinition(tx, def)
		if err != nil {
			return false, 0, err
		}
		def.ID = id
	} else {
		def.ID = existing.ID
		def.Updated = now
		update := `
			UPDATE workflow_definitions
			SET description = ` + placeholder(1) + `, workflow_type = ` + placeholder(2) + `, module = ` + placeholder(3) + `,
			    version = ` + placeholder(4) + `, active = ` + placeholder(5) + `, updated = ` + placeholder(6) + `
			WHERE id = ` + placeholder(7) + `
		`
		if _, err := tx.Exec(update, def.Description, def.WorkflowType, def.Module, def.Version, def.Active, formatDateInDatabase(now), def.ID); err != nil {
			return false, 0, err
		}
		for _, table := range []string{"workflow_transitions", "workflow_steps"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE definition_id = `+placeholder(1), def.ID); err != nil {
				return false, 0, err
			}
		}
	}

	if err := insertStepsAndTransitions(tx, def.ID, steps, transitions); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}
	return created, def.ID, nil
}

func insertDefinition(tx *sql.Tx, def *domain.WorkflowDefinition) (int64, error) {
	vals := []interface{}{def.Name, def.Description, def.WorkflowType, def.Module, def.Version, def.Active,
		formatDateInDatabase(def.Created), formatDateInDatabase(def.Updated)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO workflow_definitions (
		name, description, workflow_type, module, version, active, created, updated
	) VALUES (` + strings.Join(pps, ", ") + `)`
	return execInsert(tx, base, vals...)
}

func insertStepsAndTransitions(tx *sql.Tx, definitionID int64, steps []domain.WorkflowStep, transitions []domain.WorkflowTransition) error {
	stepInsert := `
		INSERT INTO workflow_steps (definition_id, step_order, name, required_role, action_type, deadline_hours)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `)
	`
	for _, s := range steps {
		if _, err := tx.Exec(stepInsert, definitionID, s.StepOrder, s.Name, s.RequiredRole, s.ActionType, s.DeadlineHours); err != nil {
			return err
		}
	}
	transitionInsert := `
		INSERT INTO workflow_transitions (definition_id, from_order, to_order, trigger_type, name)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `)
	`
	for _, t := range transitions {
		if _, err := tx.Exec(transitionInsert, definitionID, t.FromOrder, t.ToOrder, t.TriggerType, t.Name); err != nil {
			return err
		}
	}
	return nil
}

func findDefinition(db queryExecer, where string, args ...interface{}) (*domain.WorkflowDefinition, error) {
	query := `SELECT ` + DEFINITION_COLUMNS + ` FROM workflow_definitions` + where
	var def domain.WorkflowDefinition
	err := db.QueryRow(query, args...).Scan(
		&def.ID,
		&def.Name,
		&def.Description,
		&def.WorkflowType,
		&def.Module,
		&def.Version,
		&def.Active,
		&def.Created,
		&def.Updated,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// FindActive returns the single definition flagged active for the given
// workflow type and module, or sql.ErrNoRows when none is.
func (r *WorkflowDefinitionRepository) FindActive(workflowType string, module string) (*domain.WorkflowDefinition, error) {
	return findDefinition(r.db,
		" WHERE workflow_type = "+placeholder(1)+" AND module = "+placeholder(2)+" AND active = "+boolLiteral(true),
		workflowType, module)
}

func (r *WorkflowDefinitionRepository) FindByID(id int64) (*domain.WorkflowDefinition, error) {
	return findDefinition(r.db, " WHERE id = "+placeholder(1), id)
}

func (r *WorkflowDefinitionRepository) FindByName(name string) (*domain.WorkflowDefinition, error) {
	return findDefinition(r.db, " WHERE name = "+placeholder(1), name)
}

// FindAll returns all workflow definitions ordered by name.
func (r *WorkflowDefinitionRepository) FindAll() (*[]domain.WorkflowDefinition, error) {
	query := `SELECT ` + DEFINITION_COLUMNS + ` FROM workflow_definitions ORDER BY name`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]domain.WorkflowDefinition, 0)
	for rows.Next() {
		var d domain.WorkflowDefinition
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.WorkflowType, &d.Module, &d.Version, &d.Active, &d.Created, &d.Updated); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &defs, nil
}

// LoadSteps returns a definition's steps ordered by step_order ascending.
func (r *WorkflowDefinitionRepository) LoadSteps(definitionID int64) ([]domain.WorkflowStep, error) {
	query := `
		SELECT id, definition_id, step_order, name, required_role, action_type, deadline_hours
		FROM workflow_steps
		WHERE definition_id = ` + placeholder(1) + `
		ORDER BY step_order ASC
	`
	rows, err := r.db.Query(query, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		if err := rows.Scan(&s.ID, &s.DefinitionID, &s.StepOrder, &s.Name, &s.RequiredRole, &s.ActionType, &s.DeadlineHours); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// LoadTransitions returns a definition's declared transitions. The step
// engine never consults these at runtime; they exist for validation and
// visualization consumers.
func (r *WorkflowDefinitionRepository) LoadTransitions(definitionID int64) ([]domain.WorkflowTransition, error) {
	query := `
		SELECT id, definition_id, from_order, to_order, trigger_type, name
		FROM workflow_transitions
		WHERE definition_id = ` + placeholder(1) + `
		ORDER BY id ASC
	`
	rows, err := r.db.Query(query, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []domain.WorkflowTransition
	for rows.Next() {
		var t domain.WorkflowTransition
		if err := rows.Scan(&t.ID, &t.DefinitionID, &t.FromOrder, &t.ToOrder, &t.TriggerType, &t.Name); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}
