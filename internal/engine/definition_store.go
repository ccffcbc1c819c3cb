package engine

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// DefinitionDetail is a definition with its steps and transitions loaded.
// Steps are ordered ascending; instances snapshot from this, never from
// live rows, so later edits cannot reach running instances.
type DefinitionDetail struct {
	Definition  domain.WorkflowDefinition
	Steps       []domain.WorkflowStep
	Transitions []domain.WorkflowTransition
}

// DefinitionStore validates and persists workflow definitions and serves
// the active definition per workflow type.
type DefinitionStore struct {
	definitionRepo DefinitionRepo
	audit          *AuditLogger
	clock          core.Clock
}

func NewDefinitionStore(definitionRepo DefinitionRepo, audit *AuditLogger, clock core.Clock) *DefinitionStore {
	return &DefinitionStore{definitionRepo: definitionRepo, audit: audit, clock: clock}
}

// ValidateSpec checks a definition spec: steps present and contiguously
// ordered from 1, every step carries a required role, and every transition
// references a declared order or a sentinel (from 0 = start, nil to =
// terminal). Violations fail ErrValidation.
func ValidateSpec(spec models.DefinitionSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: definition name is required", ErrValidation)
	}
	if spec.WorkflowType == "" {
		return fmt.Errorf("%w: workflowType is required for definition %q", ErrValidation, spec.Name)
	}
	if len(spec.Steps) == 0 {
		return fmt.Errorf("%w: definition %q has no steps", ErrValidation, spec.Name)
	}

	seen := make(map[int]bool, len(spec.Steps))
	for _, s := range spec.Steps {
		if s.Order < 1 || s.Order > len(spec.Steps) {
			return fmt.Errorf("%w: definition %q step %q has order %d outside 1..%d", ErrValidation, spec.Name, s.Name, s.Order, len(spec.Steps))
		}
		if seen[s.Order] {
			return fmt.Errorf("%w: definition %q has duplicate step order %d", ErrValidation, spec.Name, s.Order)
		}
		seen[s.Order] = true
		if s.Name == "" {
			return fmt.Errorf("%w: definition %q has a step at order %d without a name", ErrValidation, spec.Name, s.Order)
		}
		if s.RequiredRole == "" {
			return fmt.Errorf("%w: definition %q step %q has no required role", ErrValidation, spec.Name, s.Name)
		}
	}
	// seen covers 1..N with no duplicates, so orders are contiguous here.

	for _, t := range spec.Transitions {
		if t.From != 0 && !seen[t.From] {
			return fmt.Errorf("%w: definition %q transition %q references undeclared from step %d", ErrValidation, spec.Name, t.Name, t.From)
		}
		if t.To != nil && !seen[*t.To] {
			return fmt.Errorf("%w: definition %q transition %q references undeclared to step %d", ErrValidation, spec.Name, t.Name, *t.To)
		}
	}
	return nil
}

func specToRows(spec models.DefinitionSpec) (*domain.WorkflowDefinition, []domain.WorkflowStep, []domain.WorkflowTransition) {
	def := &domain.WorkflowDefinition{
		Name:         spec.Name,
		Description:  spec.Description,
		WorkflowType: spec.WorkflowType,
		Module:       spec.Module,
		Version:      spec.Version,
		Active:       spec.Active,
	}
	steps := make([]domain.WorkflowStep, 0, len(spec.Steps))
	for _, s := range spec.Steps {
		step := domain.WorkflowStep{
			StepOrder:    s.Order,
			Name:         s.Name,
			RequiredRole: s.RequiredRole,
			ActionType:   s.ActionType,
		}
		if s.DeadlineHours != nil {
			step.DeadlineHours = sql.NullInt32{Int32: int32(*s.DeadlineHours), Valid: true}
		}
		steps = append(steps, step)
	}
	transitions := make([]domain.WorkflowTransition, 0, len(spec.Transitions))
	for _, t := range spec.Transitions {
		transition := domain.WorkflowTransition{
			FromOrder:   t.From,
			TriggerType: t.TriggerType,
			Name:        t.Name,
		}
		if t.To != nil {
			transition.ToOrder = sql.NullInt32{Int32: int32(*t.To), Valid: true}
		}
		transitions = append(transitions, transition)
	}
	return def, steps, transitions
}

// Register validates the spec and persists it as a new definition. When the
// spec is flagged active, the previously active definition for the same
// (workflow_type, module) is deactivated in the same transaction.
func (s *DefinitionStore) Register(spec models.DefinitionSpec, registeredBy string) (int64, error) {
	if err := ValidateSpec(spec); err != nil {
		return 0, err
	}
	def, steps, transitions := specToRows(spec)
	id, err := s.definitionRepo.Create(def, steps, transitions)
	if err != nil {
		return 0, err
	}
	slog.Info("Registered workflow definition", "name", def.Name, "workflow_type", def.WorkflowType, "id", id)
	s.audit.Append(AuditDefinitionRegistered, "workflow_definition", fmt.Sprint(id), registeredBy, nil, def, "")
	return id, nil
}

// GetActive returns the single active definition for the workflow type and
// module with its steps and transitions, or ErrNotFound.
func (s *DefinitionStore) GetActive(workflowType string, module string) (*DefinitionDetail, error) {
	def, err := s.definitionRepo.FindActive(workflowType, module)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: no active definition for workflow type %q module %q", ErrNotFound, workflowType, module)
		}
		return nil, err
	}
	return s.loadDetail(def)
}

// GetByName returns a definition by unique name with steps and transitions.
func (s *DefinitionStore) GetByName(name string) (*DefinitionDetail, error) {
	def, err := s.definitionRepo.FindByName(name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: definition %q", ErrNotFound, name)
		}
		return nil, err
	}
	return s.loadDetail(def)
}

func (s *DefinitionStore) loadDetail(def *domain.WorkflowDefinition) (*DefinitionDetail, error) {
	steps, err := s.definitionRepo.LoadSteps(def.ID)
	if err != nil {
		return nil, err
	}
	transitions, err := s.definitionRepo.LoadTransitions(def.ID)
	if err != nil {
		return nil, err
	}
	return &DefinitionDetail{Definition: *def, Steps: steps, Transitions: transitions}, nil
}

// List returns all definitions.
func (s *DefinitionStore) List() (*[]domain.WorkflowDefinition, error) {
	return s.definitionRepo.FindAll()
}
