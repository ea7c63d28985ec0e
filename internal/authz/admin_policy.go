package authz

import (
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// AdminDashboardPolicy gates the admin management surface. Every action on it
// is admin-only; organizer does not qualify.
type AdminDashboardPolicy struct{}

func (AdminDashboardPolicy) Authorize(actor *userdomain.User, action Action, target Resource) Decision {
	if _, ok := target.(AdminDashboard); !ok {
		return Deny("target is not the admin dashboard")
	}
	if actor == nil {
		return Deny("authentication required")
	}
	if !actor.Role.IsAdmin() {
		return Deny("admin required")
	}
	return Allow()
}

func (AdminDashboardPolicy) Scope(actor *userdomain.User) Filter {
	if actor != nil && actor.Role.IsAdmin() {
		return FilterAll
	}
	return FilterNone
}
