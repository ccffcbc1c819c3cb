package models

import "time"

type StartInstanceRequest struct {
	WorkflowType string `json:"workflowType"`
	Module       string `json:"module"`
	EntityType   string `json:"entityType"`
	EntityID     string `json:"entityId"`
	StartedBy    string `json:"startedBy"`
}

type StartInstanceResponse struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
}

type InstanceApiResponse struct {
	ID           int64      `json:"id"`
	Reference    string     `json:"reference"`
	DefinitionID int64      `json:"definitionId"`
	WorkflowType string     `json:"workflowType"`
	EntityType   string     `json:"entityType"`
	EntityID     string     `json:"entityId"`
	Status       string     `json:"status"`
	StartedBy    string     `json:"startedBy"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

type StepExecutionApiResponse struct {
	ID           int64      `json:"id"`
	InstanceID   int64      `json:"instanceId"`
	StepOrder    int        `json:"stepOrder"`
	StepName     string     `json:"stepName"`
	RequiredRole string     `json:"requiredRole"`
	Status       string     `json:"status"`
	AssignedTo   string     `json:"assignedTo,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Comments     string     `json:"comments,omitempty"`
	ActionTaken  string     `json:"actionTaken,omitempty"`
}

// InstanceStateResponse is the read model consumed by hosting UIs: the
// instance plus its step executions in ascending order.
type InstanceStateResponse struct {
	Instance       InstanceApiResponse        `json:"instance"`
	StepExecutions []StepExecutionApiResponse `json:"stepExecutions"`
}

type SearchInstancesRequest struct {
	Status       string
	WorkflowType string
	EntityType   string
	EntityID     string
	Limit        int
	Offset       int
}
