package engine

import (
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

// Audit action names written by the engine.
const (
	AuditDefinitionRegistered = "DEFINITION_REGISTERED"
	AuditTemplateImported     = "TEMPLATE_IMPORTED"
	AuditTemplateImportFailed = "TEMPLATE_IMPORT_FAILED"
	AuditInstanceStarted      = "INSTANCE_STARTED"
	AuditStepApproved         = "STEP_APPROVED"
	AuditStepRejected         = "STEP_REJECTED"
	AuditInstanceCompleted    = "INSTANCE_COMPLETED"
	AuditInstanceRejected     = "INSTANCE_REJECTED"
	AuditRoleGranted          = "ROLE_GRANTED"
	AuditRoleRevoked          = "ROLE_REVOKED"
)

// AuditLogger writes append-only audit records for every mutation across
// the engine. A failed append is logged and never fails the business
// operation it documents.
type AuditLogger struct {
	auditRepo AuditRepo
	clock     core.Clock
}

func NewAuditLogger(auditRepo AuditRepo, clock core.Clock) *AuditLogger {
	return &AuditLogger{auditRepo: auditRepo, clock: clock}
}

// Append records one mutation. Before and after are marshalled to JSON;
// either may be nil.
func (l *AuditLogger) Append(action string, resourceType string, resourceID string, actor string, before interface{}, after interface{}, metadata string) {
	record := &domain.AuditRecord{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Actor:        actor,
		Before:       marshalSnapshot(before),
		After:        marshalSnapshot(after),
		Created:      l.clock.Now().UTC(),
	}
	if metadata != "" {
		record.Metadata = sql.NullString{String: metadata, Valid: true}
	}
	if _, err := l.auditRepo.Save(record); err != nil {
		slog.Error("Failed to append audit record", "action", action, "resource_type", resourceType, "resource_id", resourceID, "error", err)
	}
}

// History returns all audit records for a resource, newest first.
func (l *AuditLogger) History(resourceType string, resourceID string) (*[]domain.AuditRecord, error) {
	return l.auditRepo.FindAllByResource(resourceType, resourceID)
}

func marshalSnapshot(v interface{}) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to marshal audit snapshot", "error", err)
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
