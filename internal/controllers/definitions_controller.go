package controllers

import (
	"log/slog"
	"net/http"

	"github.com/portalteam/approvalflow/internal/catalog"
	"github.com/portalteam/approvalflow/internal/engine"
	"github.com/portalteam/approvalflow/internal/util"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// DefinitionsController exposes definition registration, listing and the
// template catalog import.
type DefinitionsController struct {
	AuthController
	DefinitionStore *engine.DefinitionStore
	Importer        *engine.TemplateImporter
}

func NewDefinitionsController(definitionStore *engine.DefinitionStore, importer *engine.TemplateImporter,
	userRepo engine.UserRepo) *DefinitionsController {
	return &DefinitionsController{
		DefinitionStore: definitionStore,
		Importer:        importer,
		AuthController:  AuthController{UserRepo: userRepo},
	}
}

func (c *DefinitionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/definitions", c.RequireAuth(c.handleRegisterDefinition))
	mux.HandleFunc("GET /api/v1/definitions", c.RequireAuth(c.handleListDefinitions))
	mux.HandleFunc("GET /api/v1/definitions/{name}", c.RequireAuth(c.handleGetDefinition))
	mux.HandleFunc("POST /api/v1/definitions/import", c.RequireAuth(c.handleImportTemplates))
}

func (c *DefinitionsController) handleRegisterDefinition(w http.ResponseWriter, r *http.Request) {
	spec, err := util.DecodeJSONBody[models.DefinitionSpec](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	id, err := c.DefinitionStore.Register(spec, actorFromContext(r.Context()))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, models.RegisterDefinitionResponse{ID: id})
}

func (c *DefinitionsController) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := c.DefinitionStore.List()
	if err != nil {
		slog.Error("Failed to list definitions", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to list definitions")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, defs)
}

func (c *DefinitionsController) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	detail, err := c.DefinitionStore.GetByName(name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, detail)
}

func (c *DefinitionsController) handleImportTemplates(w http.ResponseWriter, r *http.Request) {
	cat, err := catalog.Load()
	if err != nil {
		slog.Error("Failed to load template catalog", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "failed to load template catalog")
		return
	}
	report := c.Importer.Import(cat, actorFromContext(r.Context()))
	util.WriteJSONResponse(w, http.StatusOK, report)
}
