// Package service implements the session manager: registration, login,
// session resolution, and logout over the user and session repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	auditdomain "community-poll-hub/backend/internal/audit/domain"
	"community-poll-hub/backend/internal/requestctx"
	"community-poll-hub/backend/internal/security"
	sessiondomain "community-poll-hub/backend/internal/session/domain"
	"community-poll-hub/backend/internal/telemetry"
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Sentinel errors; the caller maps them to user-facing responses. Infrastructure
// failures (repository errors) pass through wrapped and are distinguishable
// with errors.Is against these sentinels.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
)

// UserRepo is the minimal user repository needed by the session manager.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Update(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the session manager.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
}

// Recorder is the audit sink shape the service reports to.
type Recorder interface {
	Record(ctx context.Context, category auditdomain.Category, event, actorID, resource, metadata string)
}

// AuthResult holds the outcome of Register or Authenticate: the server-side
// session record plus the signed token the transport layer hands to the client.
type AuthResult struct {
	Session *sessiondomain.Session
	Token   string
}

// AuthService implements registration, password login, session resolution,
// logout, and password changes.
type AuthService struct {
	userRepo    UserRepo
	sessionRepo SessionRepo
	hasher      *security.Hasher
	verifier    *security.Verifier
	tokens      *security.SessionTokenProvider
	audit       Recorder
	metrics     *telemetry.Metrics
}

// NewAuthService returns an AuthService with the given dependencies. metrics
// may be nil.
func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	verifier *security.Verifier,
	tokens *security.SessionTokenProvider,
	audit Recorder,
	metrics *telemetry.Metrics,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		verifier:    verifier,
		tokens:      tokens,
		audit:       audit,
		metrics:     metrics,
	}
}

// Register creates a user with role voter and logs them in immediately.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Role:      userdomain.RoleVoter,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if existing, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashed
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.audit.Record(ctx, auditdomain.CategoryAuth, "registration_successful", user.ID, "user",
		fmt.Sprintf(`{"username":%q}`, username))
	return s.openSession(ctx, user)
}

// Authenticate verifies username/password and opens a session capturing the
// user's id, username, and current role. The username lookup is a
// case-sensitive exact match. A missing username still pays one bcrypt
// comparison against a precomputed dummy hash so failed attempts are
// indistinguishable in latency from failed attempts on real accounts. Failure
// is always ErrInvalidCredentials; which half failed is never revealed. Every
// outcome is audited, never with the password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if user == nil {
		s.verifier.CompareDummy([]byte(password))
		return nil, s.failLogin(ctx, username)
	}
	if !s.verifier.Verify(user.PasswordHash, []byte(password)) {
		return nil, s.failLogin(ctx, username)
	}
	s.audit.Record(ctx, auditdomain.CategoryAuth, "login_successful", user.ID, "session",
		fmt.Sprintf(`{"username":%q}`, username))
	s.metrics.RecordLogin(ctx, true)
	return s.openSession(ctx, user)
}

func (s *AuthService) failLogin(ctx context.Context, username string) error {
	s.audit.Record(ctx, auditdomain.CategorySecurity, "login_failed", "", "session",
		fmt.Sprintf(`{"username":%q}`, username))
	s.metrics.RecordLogin(ctx, false)
	return ErrInvalidCredentials
}

func (s *AuthService) openSession(ctx context.Context, user *userdomain.User) (*AuthResult, error) {
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		IPAddress: requestctx.ClientIP(ctx),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.SessionTTL()),
	}
	token, _, err := s.tokens.Issue(sess.ID, user.ID, user.Username, int(user.Role))
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &AuthResult{Session: sess, Token: token}, nil
}

// CurrentSession resolves the session for the inbound request from the token
// in ctx. Returns (nil, nil) when no token is present or the token is invalid,
// expired, or revoked: those requests proceed as anonymous. The role on the
// returned session is the snapshot taken at login, not the user's live role.
func (s *AuthService) CurrentSession(ctx context.Context) (*sessiondomain.Session, error) {
	tokenString, ok := requestctx.SessionToken(ctx)
	if !ok {
		return nil, nil
	}
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, nil
	}
	sess, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if sess == nil || !sess.Active(time.Now().UTC()) {
		return nil, nil
	}
	return sess, nil
}

// RequireSession is CurrentSession for operations that demand a login; an
// anonymous request fails with ErrUnauthenticated instead of resolving nil.
func (s *AuthService) RequireSession(ctx context.Context) (*sessiondomain.Session, error) {
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// Logout revokes the session. Idempotent: revoking an already revoked or
// unknown session succeeds silently.
func (s *AuthService) Logout(ctx context.Context, sess *sessiondomain.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.sessionRepo.Revoke(ctx, sess.ID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.audit.Record(ctx, auditdomain.CategoryAuth, "logout", sess.UserID, "session",
		fmt.Sprintf(`{"username":%q}`, sess.Username))
	return nil
}

// ChangePassword lets a user rotate their own password after re-verifying the
// current one. The current-password check runs through the same verifier as
// login.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if user == nil {
		return ErrInvalidCredentials
	}
	if !s.verifier.Verify(user.PasswordHash, []byte(currentPassword)) {
		s.audit.Record(ctx, auditdomain.CategoryAuth, "password_change_failed", user.ID, "user",
			`{"reason":"current password incorrect"}`)
		return ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.audit.Record(ctx, auditdomain.CategoryAuth, "password_changed", user.ID, "user", "")
	return nil
}

// AdminSetPassword sets a user's password without the current-password check.
// Callers must have cleared the update action on the target user with the
// policy engine first.
func (s *AuthService) AdminSetPassword(ctx context.Context, userID, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if user == nil {
		return errors.New("user not found")
	}
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	s.audit.Record(ctx, auditdomain.CategoryAdmin, "password_set_by_admin", user.ID, "user", "")
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
