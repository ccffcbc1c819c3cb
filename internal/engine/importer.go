package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

// TemplateImporter loads a fixed template catalog into the definition
// store. Imports are idempotent upserts by name, so re-running after a
// partial failure is always safe.
type TemplateImporter struct {
	definitionRepo DefinitionRepo
	roleRepo       RoleRepo
	audit          *AuditLogger
	clock          core.Clock
}

func NewTemplateImporter(definitionRepo DefinitionRepo, roleRepo RoleRepo, audit *AuditLogger, clock core.Clock) *TemplateImporter {
	return &TemplateImporter{definitionRepo: definitionRepo, roleRepo: roleRepo, audit: audit, clock: clock}
}

// Import processes catalog entries strictly sequentially. Each template is
// validated, upserted by name (metadata updated, steps and transitions
// replaced wholesale), and its referenced roles declared. A failed
// template is recorded in the report and rolls back without touching the
// remaining items.
func (i *TemplateImporter) Import(catalog models.TemplateCatalog, importedBy string) models.ImportReport {
	report := models.ImportReport{
		RunID:    uuid.NewString(),
		Imported: make([]string, 0, len(catalog.Templates)),
		Failed:   make([]models.ImportFailure, 0),
	}

	roleDescriptions := make(map[string]string, len(catalog.Roles))
	for _, r := range catalog.Roles {
		roleDescriptions[r.Name] = r.Description
	}

	slog.Info("Importing template catalog", "run_id", report.RunID, "templates", len(catalog.Templates))
	for _, spec := range catalog.Templates {
		if err := i.importOne(spec, roleDescriptions); err != nil {
			slog.Warn("Template import failed", "run_id", report.RunID, "template", spec.Name, "error", err)
			report.Failed = append(report.Failed, models.ImportFailure{Name: spec.Name, Error: err.Error()})
			i.audit.Append(AuditTemplateImportFailed, "workflow_definition", spec.Name, importedBy, nil, nil,
				fmt.Sprintf(`{"runId":%q,"error":%q}`, report.RunID, err.Error()))
			continue
		}
		report.Imported = append(report.Imported, spec.Name)
		i.audit.Append(AuditTemplateImported, "workflow_definition", spec.Name, importedBy, nil, spec,
			fmt.Sprintf(`{"runId":%q}`, report.RunID))
	}
	slog.Info("Template catalog import finished", "run_id", report.RunID,
		"imported", len(report.Imported), "failed", len(report.Failed))
	return report
}

func (i *TemplateImporter) importOne(spec models.DefinitionSpec, roleDescriptions map[string]string) error {
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	def, steps, transitions := specToRows(spec)
	created, id, err := i.definitionRepo.UpsertByName(def, steps, transitions)
	if err != nil {
		return err
	}
	slog.Debug("Upserted template", "name", def.Name, "id", id, "created", created)

	declared := make(map[string]bool)
	for _, s := range steps {
		if declared[s.RequiredRole] {
			continue
		}
		declared[s.RequiredRole] = true
		role := &domain.Role{Name: s.RequiredRole, Description: roleDescriptions[s.RequiredRole]}
		if err := i.roleRepo.Upsert(role); err != nil {
			return fmt.Errorf("upsert role %q: %w", s.RequiredRole, err)
		}
	}
	return nil
}
