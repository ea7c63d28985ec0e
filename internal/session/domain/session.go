package domain

import (
	"time"

	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Session is the server-side record of an authenticated session. Role is a
// snapshot taken at login: promoting or demoting the user does not revoke or
// upgrade sessions already issued; stale privileges last until re-login. That
// mirrors the long-standing production behavior and is deliberate.
type Session struct {
	ID        string
	UserID    string
	Username  string
	Role      userdomain.Role
	IPAddress string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil when not revoked
}

// Active reports whether the session is neither revoked nor expired at now.
func (s *Session) Active(now time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return now.Before(s.ExpiresAt)
}
