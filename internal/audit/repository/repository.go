package repository

import (
	"context"

	"community-poll-hub/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	// ListRecent returns the newest entries first, up to limit.
	ListRecent(ctx context.Context, limit int32) ([]*domain.AuditLog, error)
	// ListByActor returns the newest entries for one actor, up to limit.
	ListByActor(ctx context.Context, actorID string, limit int32) ([]*domain.AuditLog, error)
}
