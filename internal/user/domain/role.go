package domain

import "fmt"

// Role is the closed set of user roles. Stored as an integer; the legacy
// deployment stored freeform strings, which ParseRole maps explicitly.
type Role int

const (
	RoleVoter Role = iota
	RoleOrganizer
	RoleAdmin
)

// legacyRoleNames is the migration mapping from the historical string column
// to the integer enum. Unknown strings map to voter, matching the SQL
// migration that introduced the integer column.
var legacyRoleNames = map[string]Role{
	"voter":     RoleVoter,
	"organizer": RoleOrganizer,
	"admin":     RoleAdmin,
}

// ParseRole maps a role name to a Role. Unknown names fall back to RoleVoter.
func ParseRole(s string) Role {
	if r, ok := legacyRoleNames[s]; ok {
		return r
	}
	return RoleVoter
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	return r >= RoleVoter && r <= RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleVoter:
		return "voter"
	case RoleOrganizer:
		return "organizer"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// The three roles have disjoint capability sets: an organizer does not inherit
// voter-only actions and vice versa. The only implication is that admin
// satisfies any organizer-or-admin check.

func (r Role) IsVoter() bool     { return r == RoleVoter }
func (r Role) IsOrganizer() bool { return r == RoleOrganizer }
func (r Role) IsAdmin() bool     { return r == RoleAdmin }

// IsOrganizerOrAdmin reports whether r satisfies an organizer-level check.
func (r Role) IsOrganizerOrAdmin() bool { return r == RoleOrganizer || r == RoleAdmin }
