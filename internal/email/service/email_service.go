// Package service implements the out-of-band email-change confirmation
// workflow: request stores a pending change and notifies the new address;
// confirm redeems the single-use token within its validity window.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	auditdomain "community-poll-hub/backend/internal/audit/domain"
	"community-poll-hub/backend/internal/mailer"
	"community-poll-hub/backend/internal/security"
	"community-poll-hub/backend/internal/telemetry"
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Sentinel errors; the caller maps them to user-facing messages.
var (
	ErrDuplicateEmail     = errors.New("email address is already in use")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrTokenNotFound      = errors.New("confirmation token not found")
	ErrTokenExpired       = errors.New("confirmation token expired")
)

// UserRepo is the minimal user repository needed by the workflow.
type UserRepo interface {
	EmailTakenByOther(ctx context.Context, email, userID string) (bool, error)
	SetPendingEmailChange(ctx context.Context, userID, pendingEmail, tokenDigest string) error
	GetByConfirmationTokenDigest(ctx context.Context, tokenDigest string) (*userdomain.User, error)
	ClaimEmailChange(ctx context.Context, tokenDigest string) (*userdomain.User, error)
	ClearPendingEmailChange(ctx context.Context, userID string) error
}

// Recorder is the audit sink shape the workflow reports to.
type Recorder interface {
	Record(ctx context.Context, category auditdomain.Category, event, actorID, resource, metadata string)
}

// EmailService drives the Stable -> PendingConfirmation -> Stable state machine
// for a user's email address.
type EmailService struct {
	userRepo UserRepo
	mail     mailer.Mailer
	audit    Recorder
	metrics  *telemetry.Metrics
	baseURL  string
}

// NewEmailService returns an EmailService. baseURL is the public origin used
// to build confirmation links (e.g. https://polls.example.com). metrics may be nil.
func NewEmailService(userRepo UserRepo, mail mailer.Mailer, audit Recorder, metrics *telemetry.Metrics, baseURL string) *EmailService {
	return &EmailService{
		userRepo: userRepo,
		mail:     mail,
		audit:    audit,
		metrics:  metrics,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// RequestChange starts an email change for the user. It rejects addresses that
// fail the syntax check or already belong to another user. On success it
// persists (pending_email, token digest, issued_at) in one statement, then
// hands the confirmation link to the notifier. Delivery is best-effort: a
// notifier failure is logged and the pending state stands; if persistence
// fails nothing is sent. The token appears only in the message handed to the
// notifier, never in logs or audit records.
func (s *EmailService) RequestChange(ctx context.Context, user *userdomain.User, newEmail string) error {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if !userdomain.ValidEmail(newEmail) {
		s.recordOutcome(ctx, user.ID, "email_change_rejected", newEmail, "invalid_format")
		return ErrInvalidEmailFormat
	}
	taken, err := s.userRepo.EmailTakenByOther(ctx, newEmail, user.ID)
	if err != nil {
		return fmt.Errorf("request email change: %w", err)
	}
	if taken {
		s.recordOutcome(ctx, user.ID, "email_change_rejected", newEmail, "duplicate_email")
		return ErrDuplicateEmail
	}

	token, err := security.NewConfirmationToken()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetPendingEmailChange(ctx, user.ID, newEmail, security.DigestToken(token)); err != nil {
		return fmt.Errorf("request email change: %w", err)
	}
	s.recordOutcome(ctx, user.ID, "email_change_requested", newEmail, "requested")

	subject := "Confirm your new email address"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"You have requested to change your email address to: %s\n\n"+
			"Please click the following link to confirm this change:\n%s/confirm_email/%s\n\n"+
			"This link will expire in 24 hours.\n\n"+
			"If you did not request this change, please ignore this email.\n",
		user.Username, newEmail, s.baseURL, token)
	if err := s.mail.Send(newEmail, subject, body); err != nil {
		log.Printf("email: confirmation delivery to %s failed: %v", newEmail, err)
	}
	return nil
}

// Confirm redeems a confirmation token. Lookup is by the token's SHA-256
// digest; tokens older than the validity window fail with ErrTokenExpired, and
// a consumed or unknown token deterministically fails with ErrTokenNotFound.
// On success the pending address becomes the user's email and the pending
// fields are cleared, all in one atomic claim.
func (s *EmailService) Confirm(ctx context.Context, token string) (*userdomain.User, error) {
	digest := security.DigestToken(token)
	user, err := s.userRepo.GetByConfirmationTokenDigest(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("confirm email change: %w", err)
	}
	if user == nil {
		s.recordOutcome(ctx, "", "email_confirmation_failed", "", "token_not_found")
		return nil, ErrTokenNotFound
	}
	if user.ConfirmationExpired(time.Now().UTC()) {
		// The pending change is dead; drop it so the unique digest index frees up.
		if err := s.userRepo.ClearPendingEmailChange(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("confirm email change: %w", err)
		}
		s.recordOutcome(ctx, user.ID, "email_confirmation_failed", user.PendingEmail, "token_expired")
		return nil, ErrTokenExpired
	}
	updated, err := s.userRepo.ClaimEmailChange(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("confirm email change: %w", err)
	}
	if updated == nil {
		// Raced with another redemption; the claim statement matched no row.
		s.recordOutcome(ctx, user.ID, "email_confirmation_failed", "", "token_not_found")
		return nil, ErrTokenNotFound
	}
	s.recordOutcome(ctx, updated.ID, "email_confirmed", updated.Email, "confirmed")
	return updated, nil
}

func (s *EmailService) recordOutcome(ctx context.Context, actorID, event, email, outcome string) {
	meta := fmt.Sprintf(`{"email":%q,"outcome":%q}`, email, outcome)
	category := auditdomain.CategoryAuth
	if outcome == "token_not_found" || outcome == "token_expired" {
		category = auditdomain.CategorySecurity
	}
	s.audit.Record(ctx, category, event, actorID, "user", meta)
	s.metrics.RecordEmailChange(ctx, outcome)
}
