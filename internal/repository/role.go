package repository

import (
	"database/sql"

	"github.com/portalteam/approvalflow/internal/config"
	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

// RoleRepository persists declared role names, upserted by the template
// importer so the catalog stays the source of truth.
type RoleRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewRoleRepository(db *sql.DB, clock core.Clock) *RoleRepository {
	return &RoleRepository{db: db, clock: clock}
}

// Upsert inserts the role or updates its description by name.
func (r *RoleRepository) Upsert(role *domain.Role) error {
	now := formatDateInDatabase(r.clock.Now())
	query := ""
	db := config.GetSystemSettingString(config.DATABASE_TYPE)
	if db == config.DATABASE_TYPE_POSTGRES || db == config.DATABASE_TYPE_SQLLITE {
		query = `
		INSERT INTO roles (name, description, created, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON CONFLICT (name)
		DO UPDATE SET description = EXCLUDED.description,
			updated = EXCLUDED.updated
	`
	} else if db == config.DATABASE_TYPE_MYSQL {
		query = `
		INSERT INTO roles (name, description, created, updated)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON DUPLICATE KEY UPDATE description = VALUES(description),
			updated = VALUES(updated)
	`
	} else {
		panic("Unknown database type trying to upsert role")
	}

	_, err := r.db.Exec(query, role.Name, role.Description, now, now)
	return err
}

// FindAll returns all declared roles ordered by name.
func (r *RoleRepository) FindAll() (*[]domain.Role, error) {
	query := `
		SELECT name, description, created, updated
		FROM roles
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.Name, &role.Description, &role.Created, &role.Updated); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return &roles, rows.Err()
}
