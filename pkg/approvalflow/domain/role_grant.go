package domain

import (
	"database/sql"
	"time"
)

type RoleGrant struct {
	ID        int64
	ActorID   string
	Role      string
	GrantedBy string
	GrantedAt time.Time
	ExpiresAt sql.NullTime
	RevokedAt sql.NullTime
}

// Role is a declared role name, upserted by the template importer so the
// catalog stays the source of truth for which roles exist.
type Role struct {
	Name        string
	Description string
	Created     time.Time
	Updated     time.Time
}
