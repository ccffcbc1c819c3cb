package domain

import (
	"database/sql"
	"time"
)

const (
	InstanceStatusInProgress = "IN_PROGRESS"
	InstanceStatusCompleted  = "COMPLETED"
	InstanceStatusRejected   = "REJECTED"
)

const (
	StepStatusPending    = "PENDING"
	StepStatusInProgress = "IN_PROGRESS"
	StepStatusCompleted  = "COMPLETED"
	StepStatusRejected   = "REJECTED"
)

const (
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

type WorkflowInstance struct {
	ID           int64
	Reference    string // public uuid handle
	DefinitionID int64
	WorkflowType string
	EntityType   string
	EntityID     string
	Status       string
	StartedBy    string
	StartedAt    time.Time
	CompletedAt  sql.NullTime
}

// StepExecution is the runtime record of one step within one instance.
// Name, role and order are snapshotted from the definition at start time
// so later definition edits never touch in-flight instances.
type StepExecution struct {
	ID           int64
	InstanceID   int64
	StepOrder    int
	StepName     string
	RequiredRole string
	Status       string
	AssignedTo   sql.NullString
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	Comments     sql.NullString
	ActionTaken  sql.NullString
}
