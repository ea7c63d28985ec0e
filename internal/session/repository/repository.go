package repository

import (
	"context"

	"community-poll-hub/backend/internal/session/domain"
)

// Repository defines persistence for sessions. GetByID returns (nil, nil) for
// missing rows; errors are infrastructure failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Revoke marks the session revoked. Revoking a missing or already revoked
	// session is a no-op, which makes logout idempotent.
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
}
