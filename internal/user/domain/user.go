package domain

import (
	"errors"
	"regexp"
	"time"
)

// EmailConfirmationTTL is how long an email-change confirmation token stays
// redeemable after issuance.
const EmailConfirmationTTL = 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s passes the address syntax check used for both
// registration and email-change requests.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// User is the core user entity. Username and Email are unique across all
// users. PendingEmail, ConfirmationTokenDigest, and ConfirmationSentAt are set
// together while an email change awaits confirmation and cleared together on
// confirmation or invalidation; the token itself is never stored, only its
// SHA-256 digest.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role

	PendingEmail            string
	ConfirmationTokenDigest string
	ConfirmationSentAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !ValidEmail(u.Email) {
		return errors.New("invalid email format")
	}
	if !u.Role.Valid() {
		return errors.New("role must be voter, organizer, or admin")
	}
	return nil
}

// HasPendingEmailChange reports whether an email change awaits confirmation.
func (u *User) HasPendingEmailChange() bool {
	return u.PendingEmail != "" && u.ConfirmationTokenDigest != "" && u.ConfirmationSentAt != nil
}

// ConfirmationExpired reports whether the pending confirmation token is past
// its validity window at the given time. False when no change is pending.
func (u *User) ConfirmationExpired(now time.Time) bool {
	if !u.HasPendingEmailChange() {
		return false
	}
	return now.Sub(*u.ConfirmationSentAt) > EmailConfirmationTTL
}
