package models

// DefinitionSpec is the input for registering a workflow definition. The
// same shape is used by entries of the template catalog, so a catalog
// entry and an API registration validate identically.
type DefinitionSpec struct {
	Name         string           `json:"name" yaml:"name"`
	Description  string           `json:"description" yaml:"description"`
	WorkflowType string           `json:"workflowType" yaml:"workflowType"`
	Module       string           `json:"module" yaml:"module"`
	Version      int              `json:"version" yaml:"version"`
	Active       bool             `json:"active" yaml:"active"`
	Steps        []StepSpec       `json:"steps" yaml:"steps"`
	Transitions  []TransitionSpec `json:"transitions" yaml:"transitions"`
}

type StepSpec struct {
	Order         int    `json:"order" yaml:"order"`
	Name          string `json:"name" yaml:"name"`
	RequiredRole  string `json:"requiredRole" yaml:"requiredRole"`
	ActionType    string `json:"actionType" yaml:"actionType"`
	DeadlineHours *int   `json:"deadlineHours,omitempty" yaml:"deadlineHours,omitempty"`
}

// TransitionSpec declares an edge between step orders. From 0 means the
// start sentinel; a nil To means the terminal sentinel.
type TransitionSpec struct {
	From        int    `json:"from" yaml:"from"`
	To          *int   `json:"to" yaml:"to"`
	TriggerType string `json:"triggerType" yaml:"triggerType"`
	Name        string `json:"name" yaml:"name"`
}

type RegisterDefinitionResponse struct {
	ID int64 `json:"id"`
}
