package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

// RoleGate is the single fail-closed authorization decision point for step
// actions. Every permission check in the engine goes through Check so a
// step's declared required_role can never drift from scattered ad hoc
// checks.
type RoleGate struct {
	grantRepo RoleGrantRepo
	audit     *AuditLogger
	clock     core.Clock
}

func NewRoleGate(grantRepo RoleGrantRepo, audit *AuditLogger, clock core.Clock) *RoleGate {
	return &RoleGate{grantRepo: grantRepo, audit: audit, clock: clock}
}

// Check reports whether the actor holds a non-expired, unrevoked grant for
// exactly requiredRole. Any lookup error denies.
func (g *RoleGate) Check(actor string, requiredRole string) bool {
	ok, err := g.grantRepo.HasActiveGrant(actor, requiredRole)
	if err != nil {
		slog.Error("Role grant lookup failed, denying", "actor", actor, "role", requiredRole, "error", err)
		return false
	}
	return ok
}

// Grant records a time-bounded right for the actor to act as the role.
func (g *RoleGate) Grant(actor string, role string, grantedBy string, expiresAt *time.Time) (int64, error) {
	if actor == "" || role == "" {
		return 0, fmt.Errorf("%w: actor and role are required", ErrValidation)
	}
	grant := &domain.RoleGrant{
		ActorID:   actor,
		Role:      role,
		GrantedBy: grantedBy,
		GrantedAt: g.clock.Now().UTC(),
	}
	if expiresAt != nil {
		grant.ExpiresAt = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}
	id, err := g.grantRepo.Save(grant)
	if err != nil {
		return 0, err
	}
	g.audit.Append(AuditRoleGranted, "role_grant", fmt.Sprint(id), grantedBy, nil, grant, "")
	return id, nil
}

// Revoke stamps the grant revoked. Revoking a missing or already revoked
// grant fails ErrNotFound.
func (g *RoleGate) Revoke(grantID int64, revokedBy string) error {
	before, err := g.grantRepo.FindByID(grantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: role grant %d", ErrNotFound, grantID)
		}
		return err
	}
	if !g.grantRepo.RevokeIfActive(grantID) {
		return fmt.Errorf("%w: role grant %d already revoked", ErrNotFound, grantID)
	}
	after, _ := g.grantRepo.FindByID(grantID)
	g.audit.Append(AuditRoleRevoked, "role_grant", fmt.Sprint(grantID), revokedBy, before, after, "")
	return nil
}

// ListGrants returns the actor's grants, newest first.
func (g *RoleGate) ListGrants(actor string) (*[]domain.RoleGrant, error) {
	return g.grantRepo.FindAllByActor(actor)
}
