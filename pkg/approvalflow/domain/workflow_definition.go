package domain

import (
	"database/sql"
	"time"
)

type WorkflowDefinition struct {
	ID           int64
	Name         string
	Description  string
	WorkflowType string
	Module       string
	Version      int
	Active       bool
	Created      time.Time
	Updated      time.Time
}

// WorkflowStep is one row of a definition's ordered step list. StepOrder is
// 1..N contiguous and unique within a definition.
type WorkflowStep struct {
	ID            int64
	DefinitionID  int64
	StepOrder     int
	Name          string
	RequiredRole  string
	ActionType    string
	DeadlineHours sql.NullInt32 // informational only, never enforced
}

// WorkflowTransition is a declared edge between step orders, kept for
// validation and visualization. FromOrder 0 is the start sentinel and a
// null ToOrder is the terminal sentinel.
type WorkflowTransition struct {
	ID           int64
	DefinitionID int64
	FromOrder    int
	ToOrder      sql.NullInt32
	TriggerType  string
	Name         string
}
