package authz

import (
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// UserPolicy gates actions on user records. Users manage their own account;
// admins manage anyone but may not delete themselves.
type UserPolicy struct{}

// Authorize evaluates the user-resource rule table.
func (UserPolicy) Authorize(actor *userdomain.User, action Action, target Resource) Decision {
	ur, ok := target.(UserResource)
	if !ok || ur.User == nil {
		return Deny("target is not a user record")
	}
	if actor == nil {
		return Deny("authentication required")
	}
	self := actor.ID == ur.User.ID

	switch action {
	case ActionShow, ActionEdit, ActionUpdate:
		if self || actor.Role.IsAdmin() {
			return Allow()
		}
		return Deny("may only view or edit own account")
	case ActionCreate, ActionNew:
		// Account creation goes through the unauthenticated registration path,
		// never through this engine.
		return Deny("user creation is handled by registration")
	case ActionDestroy:
		if !actor.Role.IsAdmin() {
			return Deny("admin required to delete users")
		}
		if self {
			return Deny("self-deletion is forbidden")
		}
		return Allow()
	case ActionIndex:
		if actor.Role.IsAdmin() {
			return Allow()
		}
		return Deny("admin required to list users")
	case ActionAssignRoles:
		if actor.Role.IsAdmin() {
			return Allow()
		}
		return Deny("admin required to assign roles")
	default:
		return Deny("unknown action for user records")
	}
}

// Scope restricts user listings: admins see all users, an authenticated
// non-admin sees only their own record, anonymous actors see none.
func (UserPolicy) Scope(actor *userdomain.User) Filter {
	switch {
	case actor == nil:
		return FilterNone
	case actor.Role.IsAdmin():
		return FilterAll
	default:
		return FilterOwn
	}
}
