// Package service implements the user management operations behind the admin
// surface: scoped listing, viewing, deletion, and role assignment. Every
// operation clears the policy engine before touching the repository.
package service

import (
	"context"
	"errors"
	"fmt"

	auditdomain "community-poll-hub/backend/internal/audit/domain"
	"community-poll-hub/backend/internal/authz"
	"community-poll-hub/backend/internal/user/domain"
	userrepo "community-poll-hub/backend/internal/user/repository"
)

// Sentinel errors; the caller maps them to user-facing responses.
var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("user not found")
)

// Recorder is the audit sink shape the service reports to.
type Recorder interface {
	Record(ctx context.Context, category auditdomain.Category, event, actorID, resource, metadata string)
}

// UserService wraps the user repository with policy checks and auditing.
type UserService struct {
	repo   userrepo.Repository
	engine *authz.Engine
	audit  Recorder
}

// NewUserService returns a UserService using the given repository, policy
// engine, and audit sink.
func NewUserService(repo userrepo.Repository, engine *authz.Engine, audit Recorder) *UserService {
	return &UserService{repo: repo, engine: engine, audit: audit}
}

// ListUsers returns the users the actor may see: everyone for admins, the
// actor's own record otherwise, nothing for anonymous actors. The restriction
// comes from the policy scope, not from the caller.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	ownerID := ""
	if actor != nil {
		ownerID = actor.ID
	}
	var filter userrepo.ListFilter
	switch s.engine.Scope(ctx, actor, authz.KindUser) {
	case authz.FilterAll:
		filter = userrepo.FilterAll
	case authz.FilterOwn:
		filter = userrepo.FilterOwn
	default:
		return nil, nil
	}
	users, err := s.repo.List(ctx, filter, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns the target user if the actor may view it.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, targetID string) (*domain.User, error) {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if target == nil {
		return nil, ErrNotFound
	}
	if d := s.engine.Authorize(ctx, actor, authz.ActionShow, authz.UserResource{User: target}); !d.Allowed {
		return nil, ErrForbidden
	}
	return target, nil
}

// DeleteUser removes the target user. Admin only; self-deletion is refused by
// the policy, so an admin cannot lock the account they are acting from.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.User, targetID string) error {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if target == nil {
		return ErrNotFound
	}
	if d := s.engine.Authorize(ctx, actor, authz.ActionDestroy, authz.UserResource{User: target}); !d.Allowed {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.audit.Record(ctx, auditdomain.CategoryAdmin, "user_deleted", actor.ID, "user",
		fmt.Sprintf(`{"target":%q,"username":%q}`, target.ID, target.Username))
	return nil
}

// AssignRole sets the target user's role. Admin only. roleName accepts the
// legacy string names; unknown names resolve to voter, matching the enum
// migration.
func (s *UserService) AssignRole(ctx context.Context, actor *domain.User, targetID, roleName string) error {
	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	if target == nil {
		return ErrNotFound
	}
	if d := s.engine.Authorize(ctx, actor, authz.ActionAssignRoles, authz.UserResource{User: target}); !d.Allowed {
		return ErrForbidden
	}
	role := domain.ParseRole(roleName)
	if target.Role == role {
		return nil
	}
	previous := target.Role
	target.Role = role
	if err := s.repo.Update(ctx, target); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	// Sessions already issued keep their role snapshot until re-login.
	s.audit.Record(ctx, auditdomain.CategoryAdmin, "role_assigned", actor.ID, "user",
		fmt.Sprintf(`{"target":%q,"from":%q,"to":%q}`, target.ID, previous.String(), role.String()))
	return nil
}
