package authz

import (
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Decision is the outcome of an authorization check. A Decision never renders
// a response; the caller decides between forbidden and redirect.
type Decision struct {
	Allowed bool
	Reason  string // set on deny
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Filter restricts a list view to what the actor may see.
type Filter int

const (
	FilterNone Filter = iota // anonymous actors see nothing
	FilterOwn                // only the actor's own records
	FilterAll                // admins see everything
)

func (f Filter) String() string {
	switch f {
	case FilterOwn:
		return "own"
	case FilterAll:
		return "all"
	default:
		return "none"
	}
}

// Policy evaluates (actor, action, target) for one resource kind. Policies are
// pure functions over their inputs; they hold no state between checks. actor
// is nil for anonymous requests.
type Policy interface {
	Authorize(actor *userdomain.User, action Action, target Resource) Decision
	Scope(actor *userdomain.User) Filter
}
