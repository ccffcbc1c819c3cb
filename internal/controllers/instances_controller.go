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

// InstancesController exposes instance lifecycle endpoints: start, read
// state and act on step executions.
type InstancesController struct {
	AuthController
	InstanceManager *engine.InstanceManager
	StepEngine      *engine.StepEngine
}

func NewInstancesController(instanceManager *engine.InstanceManager, stepEngine *engine.StepEngine,
	userRepo engine.UserRepo) *InstancesController {
	return &InstancesController{
		InstanceManager: instanceManager,
		StepEngine:      stepEngine,
		AuthController:  AuthController{UserRepo: userRepo},
	}
}

func (c *InstancesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/instances", c.RequireAuth(c.handleStartInstance))
	mux.HandleFunc("GET /api/v1/instances", c.RequireAuth(c.handleSearchInstances))
	mux.HandleFunc("GET /api/v1/instances/ref/{reference}", c.RequireAuth(c.handleGetStateByReference))
	mux.HandleFunc("GET /api/v1/instances/{entityType}/{entityId}", c.RequireAuth(c.handleGetState))
	mux.HandleFunc("POST /api/v1/step-executions/{id}/act", c.RequireAuth(c.handleAct))
}

func (c *InstancesController) handleStartInstance(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.StartInstanceRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.StartedBy == "" {
		req.StartedBy = actorFromContext(r.Context())
	}

	slog.InfoContext(r.Context(), "Starting workflow instance", "workflow_type", req.WorkflowType,
		"entity_type", req.EntityType, "entity_id", req.EntityID)
	inst, err := c.InstanceManager.Start(req.WorkflowType, req.Module, req.EntityType, req.EntityID, req.StartedBy)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, models.StartInstanceResponse{ID: inst.ID, Reference: inst.Reference})
}

func (c *InstancesController) handleGetState(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("entityType")
	entityID := r.PathValue("entityId")
	if entityType == "" || entityID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "entityType and entityId are required")
		return
	}
	state, err := c.InstanceManager.GetState(entityType, entityID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, mapInstanceState(state))
}

func (c *InstancesController) handleGetStateByReference(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")
	if reference == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "reference is required")
		return
	}
	state, err := c.InstanceManager.GetStateByReference(reference)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, mapInstanceState(state))
}

func (c *InstancesController) handleSearchInstances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	req := models.SearchInstancesRequest{
		Status:       q.Get("status"),
		WorkflowType: q.Get("workflow_type"),
		EntityType:   q.Get("entity_type"),
		EntityID:     q.Get("entity_id"),
		Limit:        limit,
		Offset:       offset,
	}
	instances, err := c.InstanceManager.Search(req)
	if err != nil {
		slog.Error("Failed to search instances", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to search instances")
		return
	}
	results := make([]models.InstanceApiResponse, 0, len(*instances))
	for _, inst := range *instances {
		results = append(results, mapInstance(&inst))
	}
	util.WriteJSONResponse(w, http.StatusOK, results)
}

func (c *InstancesController) handleAct(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "id is an integer")
		return
	}

	req, err := util.DecodeJSONBody[models.ActRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Actor == "" {
		req.Actor = actorFromContext(r.Context())
	}

	slog.InfoContext(r.Context(), "Acting on step execution", "step_execution_id", id,
		"actor", req.Actor, "action", req.Action)
	result, err := c.StepEngine.Act(id, req.Actor, req.Action, req.Comment)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, models.ActResponse{
		StepExecution: mapStepExecution(&result.StepExecution),
		Instance:      mapInstance(&result.Instance),
	})
}

func mapInstance(inst *domain.WorkflowInstance) models.InstanceApiResponse {
	resp := models.InstanceApiResponse{
		ID:           inst.ID,
		Reference:    inst.Reference,
		DefinitionID: inst.DefinitionID,
		WorkflowType: inst.WorkflowType,
		EntityType:   inst.EntityType,
		EntityID:     inst.EntityID,
		Status:       inst.Status,
		StartedBy:    inst.StartedBy,
		StartedAt:    inst.StartedAt,
	}
	if inst.CompletedAt.Valid {
		t := inst.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

func mapStepExecution(se *domain.StepExecution) models.StepExecutionApiResponse {
	resp := models.StepExecutionApiResponse{
		ID:           se.ID,
		InstanceID:   se.InstanceID,
		StepOrder:    se.StepOrder,
		StepName:     se.StepName,
		RequiredRole: se.RequiredRole,
		Status:       se.Status,
		AssignedTo:   se.AssignedTo.String,
		Comments:     se.Comments.String,
		ActionTaken:  se.ActionTaken.String,
	}
	if se.StartedAt.Valid {
		t := se.StartedAt.Time
		resp.StartedAt = &t
	}
	if se.CompletedAt.Valid {
		t := se.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

func mapInstanceState(state *engine.InstanceState) models.InstanceStateResponse {
	resp := models.InstanceStateResponse{
		Instance:       mapInstance(&state.Instance),
		StepExecutions: make([]models.StepExecutionApiResponse, 0, len(state.StepExecutions)),
	}
	for i := range state.StepExecutions {
		resp.StepExecutions = append(resp.StepExecutions, mapStepExecution(&state.StepExecutions[i]))
	}
	return resp
}
