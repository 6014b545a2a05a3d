package postgres

import (
	"context"
	"database/sql"

	"programdesk/internal/domain"
)

type AuditLogRepository struct {
	DB *sql.DB
}

func NewAuditLogRepository(db *sql.DB) domain.AuditLogRepository {
	return &AuditLogRepository{
		DB: db,
	}
}

// Record appends one audit entry. The table is append-only; entries are
// never updated or deleted.
func (r *AuditLogRepository) Record(ctx context.Context, action, actorID, targetType, targetID string) error {
	query := `
		INSERT INTO audit_log (action, actor_id, target_type, target_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := q(ctx, r.DB).ExecContext(ctx, query, action, actorID, targetType, targetID)
	return err
}
