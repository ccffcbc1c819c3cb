package repository

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/portalteam/approvalflow/pkg/approvalflow/core"
	"github.com/portalteam/approvalflow/pkg/approvalflow/domain"
)

const AUDIT_COLUMNS = ` id, action, resource_type, resource_id, actor, before_state, after_state, metadata, created `

// AuditRecordRepository provides methods to persist and query the
// append-only audit log. There is deliberately no update or delete.
type AuditRecordRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewAuditRecordRepository(db *sql.DB, clock core.Clock) *AuditRecordRepository {
	return &AuditRecordRepository{db: db, clock: clock}
}

// Save inserts a new audit record and returns its ID.
func (r *AuditRecordRepository) Save(a *domain.AuditRecord) (int64, error) {
	if a.Created.IsZero() {
		a.Created = r.clock.Now().UTC()
	}
	vals := []interface{}{a.Action, a.ResourceType, a.ResourceID, a.Actor, a.Before, a.After, a.Metadata,
		formatDateInDatabase(a.Created)}
	pps := make([]string, 0, len(vals))
	for i := range vals {
		pps = append(pps, placeholder(i+1))
	}
	base := `INSERT INTO audit_log (
		action, resource_type, resource_id, actor, before_state, after_state, metadata, created
	) VALUES (` + strings.Join(pps, ", ") + `)`

	id, err := execInsert(r.db, base, vals...)
	if err != nil {
		slog.Error("Failed to save audit record", "error", err, "action", a.Action, "resource_type", a.ResourceType)
		return 0, err
	}
	a.ID = id
	return id, nil
}

// FindAllByResource returns all audit records for a resource, newest first.
func (r *AuditRecordRepository) FindAllByResource(resourceType string, resourceID string) (*[]domain.AuditRecord, error) {
	query := `
		SELECT ` + AUDIT_COLUMNS + `
		FROM audit_log
		WHERE resource_type = ` + placeholder(1) + ` AND resource_id = ` + placeholder(2) + `
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var a domain.AuditRecord
		if err := rows.Scan(
			&a.ID,
			&a.Action,
			&a.ResourceType,
			&a.ResourceID,
			&a.Actor,
			&a.Before,
			&a.After,
			&a.Metadata,
			&a.Created,
		); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return &records, rows.Err()
}
