package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/portalteam/approvalflow/internal/engine"
	"github.com/portalteam/approvalflow/internal/util"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// RolesController manages the role grant lifecycle.
type RolesController struct {
	AuthController
	RoleGate *engine.RoleGate
	RoleRepo engine.RoleRepo
}

func NewRolesController(roleGate *engine.RoleGate, roleRepo engine.RoleRepo, userRepo engine.UserRepo) *RolesController {
	return &RolesController{
		RoleGate:       roleGate,
		RoleRepo:       roleRepo,
		AuthController: AuthController{UserRepo: userRepo},
	}
}

func (c *RolesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/roles", c.RequireAuth(c.handleListRoles))
	mux.HandleFunc("POST /api/v1/roles/grants", c.RequireAuth(c.handleGrantRole))
	mux.HandleFunc("DELETE /api/v1/roles/grants/{id}", c.RequireAuth(c.handleRevokeGrant))
	mux.HandleFunc("GET /api/v1/roles/grants/{actor}", c.RequireAuth(c.handleListGrants))
}

func (c *RolesController) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := c.RoleRepo.FindAll()
	if err != nil {
		slog.Error("Failed to list roles", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, roles)
}

func (c *RolesController) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.GrantRoleRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	id, err := c.RoleGate.Grant(req.ActorID, req.Role, actorFromContext(r.Context()), req.ExpiresAt)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, models.GrantRoleResponse{ID: id})
}

func (c *RolesController) handleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "id is an integer")
		return
	}
	if err := c.RoleGate.Revoke(id, actorFromContext(r.Context())); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *RolesController) handleListGrants(w http.ResponseWriter, r *http.Request) {
	actor := r.PathValue("actor")
	if actor == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "actor is required")
		return
	}
	grants, err := c.RoleGate.ListGrants(actor)
	if err != nil {
		slog.Error("Failed to list grants", "actor", actor, "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to list grants")
		return
	}
	results := make([]models.RoleGrantApiResponse, 0, len(*grants))
	for i := range *grants {
		results = append(results, mapRoleGrant(&(*grants)[i]))
	}
	util.WriteJSONResponse(w, http.StatusOK, results)
}

func mapRoleGrant(g *domain.RoleGrant) models.RoleGrantApiResponse {
	resp := models.RoleGrantApiResponse{
		ID:        g.ID,
		ActorID:   g.ActorID,
		Role:      g.Role,
		GrantedBy: g.GrantedBy,
		GrantedAt: g.GrantedAt,
	}
	if g.ExpiresAt.Valid {
		t := g.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	if g.RevokedAt.Valid {
		t := g.RevokedAt.Time
		resp.RevokedAt = &t
	}
	return resp
}
