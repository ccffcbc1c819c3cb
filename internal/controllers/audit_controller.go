package controllers

import (
	"log/slog"
	"net/http"

	"github.com/portalteam/approvalflow/internal/engine"
	"github.com/portalteam/approvalflow/internal/util"
)

// AuditController exposes the read side of the audit log.
type AuditController struct {
	AuthController
	AuditLogger *engine.AuditLogger
}

func NewAuditController(auditLogger *engine.AuditLogger, userRepo engine.UserRepo) *AuditController {
	return &AuditController{
		AuditLogger:    auditLogger,
		AuthController: AuthController{UserRepo: userRepo},
	}
}

func (c *AuditController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/audit/{resourceType}/{resourceId}", c.RequireAuth(c.handleGetHistory))
}

func (c *AuditController) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	resourceType := r.PathValue("resourceType")
	resourceID := r.PathValue("resourceId")
	if resourceType == "" || resourceID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "resourceType and resourceId are required")
		return
	}
	records, err := c.AuditLogger.History(resourceType, resourceID)
	if err != nil {
		slog.Error("Failed to load audit history", "resource_type", resourceType, "resource_id", resourceID, "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to load audit history")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, records)
}
