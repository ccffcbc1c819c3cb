package repository

import (
	"database/sql"
	"strings"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

const ROLE_GRANT_COLUMNS = ` id, actor_id, role, granted_by, granted_at, expires_at, revoked_at `

type RoleGrantRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewRoleGrantRepository(db *sql.DB, clock core.Clock) *RoleGrantRepository {
	return &RoleGrantRepository{db: db, clock: clock}
}

func (r *RoleGrantRepository) Save(g *domain.RoleGrant) (int64, error) {
	vals := []interface{}{g.ActorID, g.Role, g.GrantedBy, formatDateInDatabase(g.GrantedAt),
		formatDateInDatabaseNull(g.ExpiresAt), formatDateInDatabaseNull(g.RevokedAt)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO role_grants (
		actor_id, role, granted_by, granted_at, expires_at, revoked_at
	) VALUES (` + strings.Join(pps, ", ") + `)`
	id, err := execInsert(r.db, base, vals...)
	if err != nil {
		return 0, err
	}
	g.ID = id
	return id, nil
}

func (r *RoleGrantRepository) FindByID(id int64) (*domain.RoleGrant, error) {
	query := `SELECT ` + ROLE_GRANT_COLUMNS + ` FROM role_grants WHERE id = ` + placeholder(1)
	var g domain.RoleGrant
	err := r.db.QueryRow(query, id).Scan(
		&g.ID,
		&g.ActorID,
		&g.Role,
		&g.GrantedBy,
		&g.GrantedAt,
		&g.ExpiresAt,
		&g.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// HasActiveGrant reports whether the actor holds an unrevoked grant for
// exactly the given role that has not expired as of now.
func (r *RoleGrantRepository) HasActiveGrant(actorID string, role string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM role_grants
		WHERE actor_id = ` + placeholder(1) + ` AND role = ` + placeholder(2) + `
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > ` + placeholder(3) + `)
	`
	var count int
	if err := r.db.QueryRow(query, actorID, role, formatDateInDatabase(r.clock.Now())).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RevokeIfActive stamps revoked_at, guarded so an already revoked grant is
// not revoked twice. Returns false when no active grant matched.
func (r *RoleGrantRepository) RevokeIfActive(id int64) bool {
	query := `
		UPDATE role_grants
		SET revoked_at = ` + placeholder(1) + `
		WHERE id = ` + placeholder(2) + ` AND revoked_at IS NULL
	`
	result, err := r.db.Exec(query, formatDateInDatabase(r.clock.Now()), id)
	if err != nil {
		return false
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false
	}
	return rowsAffected == 1
}

// FindAllByActor returns the actor's grants, newest first.
func (r *RoleGrantRepository) FindAllByActor(actorID string) (*[]domain.RoleGrant, error) {
	query := `
		SELECT ` + ROLE_GRANT_COLUMNS + `
		FROM role_grants
		WHERE actor_id = ` + placeholder(1) + `
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []domain.RoleGrant
	for rows.Next() {
		var g domain.RoleGrant
		if err := rows.Scan(&g.ID, &g.ActorID, &g.Role, &g.GrantedBy, &g.GrantedAt, &g.ExpiresAt, &g.RevokedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return &grants, rows.Err()
}
