package repository

import (
	"context"

	"community-poll-hub/backend/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) for
// missing rows; errors are infrastructure failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByUsername matches the username exactly (case-sensitive).
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	// List returns users visible under the given scope filter: all users, only
	// the user with ownerID, or none.
	List(ctx context.Context, filter ListFilter, ownerID string) ([]*domain.User, error)
	// EmailTakenByOther reports whether email is the verified address of a user
	// other than userID.
	EmailTakenByOther(ctx context.Context, email, userID string) (bool, error)

	// SetPendingEmailChange stores (pending_email, token digest, sent_at) on the
	// user in a single statement; concurrent calls are last-committed-wins.
	SetPendingEmailChange(ctx context.Context, userID, pendingEmail, tokenDigest string) error
	// ClaimEmailChange atomically promotes pending_email to email and clears the
	// pending fields for the user whose stored digest matches. Returns the
	// updated user, or nil if no user holds the digest (already redeemed or
	// never issued).
	ClaimEmailChange(ctx context.Context, tokenDigest string) (*domain.User, error)
	// GetByConfirmationTokenDigest returns the user holding the digest, or nil.
	GetByConfirmationTokenDigest(ctx context.Context, tokenDigest string) (*domain.User, error)
	// ClearPendingEmailChange drops any pending change for the user.
	ClearPendingEmailChange(ctx context.Context, userID string) error
}

// ListFilter restricts List results per the policy scope decision.
type ListFilter int

const (
	FilterNone ListFilter = iota
	FilterOwn
	FilterAll
)
