package domain

import "context"

// Audit action names recorded on schedule lifecycle transitions.
const (
	AuditScheduleRelease  = "schedule.release"
	AuditScheduleUnfreeze = "schedule.unfreeze"
)

// AuditLogRepository appends attribution records for orga actions.
type AuditLogRepository interface {
	Record(ctx context.Context, action, actorID, targetType, targetID string) error
}
