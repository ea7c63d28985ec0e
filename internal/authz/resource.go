package authz

import (
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Kind tags a resource type. The set of kinds is closed: each kind is paired
// with a statically known policy in the engine registry, so a typo in a kind
// is a compile-time or construction-time failure, never a runtime class lookup.
type Kind string

const (
	KindUser           Kind = "user"
	KindAdminDashboard Kind = "admin_dashboard"
)

// Resource is a target of an authorization check.
type Resource interface {
	ResourceKind() Kind
}

// UserResource wraps a user record as an authorization target.
type UserResource struct {
	User *userdomain.User
}

func (UserResource) ResourceKind() Kind { return KindUser }

// AdminDashboard is the admin management surface (dashboard, user management,
// activity monitoring). It has no instance state; checks depend only on the actor.
type AdminDashboard struct{}

func (AdminDashboard) ResourceKind() Kind { return KindAdminDashboard }
