package domain

import (
	"database/sql"
	"time"
)

// AuditRecord is a write-once row; nothing in the engine updates or
// deletes it after insert.
type AuditRecord struct {
	ID           int64
	Action       string
	ResourceType string
	ResourceID   string
	Actor        string
	Before       sql.NullString // JSON snapshot
	After        sql.NullString // JSON snapshot
	Metadata     sql.NullString
	Created      time.Time
}
