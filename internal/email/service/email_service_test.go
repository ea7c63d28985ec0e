package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	auditdomain "community-poll-hub/backend/internal/audit/domain"
	userdomain "community-poll-hub/backend/internal/user/domain"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*userdomain.User
}

func newMemUserRepo(users ...*userdomain.User) *memUserRepo {
	r := &memUserRepo{users: map[string]*userdomain.User{}}
	for _, u := range users {
		u2 := *u
		r.users[u.ID] = &u2
	}
	return r
}

func (r *memUserRepo) get(id string) *userdomain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u == nil {
		return nil
	}
	u2 := *u
	return &u2
}

func (r *memUserRepo) EmailTakenByOther(ctx context.Context, email, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != userID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) SetPendingEmailChange(ctx context.Context, userID, pendingEmail, tokenDigest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.New("no such user")
	}
	now := time.Now().UTC()
	u.PendingEmail = pendingEmail
	u.ConfirmationTokenDigest = tokenDigest
	u.ConfirmationSentAt = &now
	return nil
}

func (r *memUserRepo) GetByConfirmationTokenDigest(ctx context.Context, tokenDigest string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ConfirmationTokenDigest == tokenDigest && u.ConfirmationTokenDigest != "" {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ClaimEmailChange(ctx context.Context, tokenDigest string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ConfirmationTokenDigest == tokenDigest && u.ConfirmationTokenDigest != "" && u.PendingEmail != "" {
			u.Email = u.PendingEmail
			u.PendingEmail = ""
			u.ConfirmationTokenDigest = ""
			u.ConfirmationSentAt = nil
			u.UpdatedAt = time.Now().UTC()
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) ClearPendingEmailChange(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.PendingEmail = ""
		u.ConfirmationTokenDigest = ""
		u.ConfirmationSentAt = nil
	}
	return nil
}

// backdate shifts the pending change's issue time, simulating an old token.
func (r *memUserRepo) backdate(userID string, age time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok && u.ConfirmationSentAt != nil {
		then := u.ConfirmationSentAt.Add(-age)
		u.ConfirmationSentAt = &then
	}
}

type sentMail struct {
	to, subject, body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

type mockRecorder struct {
	mu     sync.Mutex
	events []string
}

func (m *mockRecorder) Record(ctx context.Context, category auditdomain.Category, event, actorID, resource, metadata string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// tokenFromMail pulls the confirmation token back out of the delivered link.
func tokenFromMail(t *testing.T, body string) string {
	t.Helper()
	const marker = "/confirm_email/"
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("mail body carries no confirmation link:\n%s", body)
	}
	rest := body[i+len(marker):]
	if j := strings.IndexAny(rest, "\n "); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func aliceUser() *userdomain.User {
	return &userdomain.User{
		ID:       "u-alice",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     userdomain.RoleVoter,
	}
}

func TestEmailChange_RoundTrip(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com/")
	ctx := context.Background()

	if err := svc.RequestChange(ctx, repo.get("u-alice"), "Alice.New@Example.com"); err != nil {
		t.Fatalf("RequestChange: %v", err)
	}

	pending := repo.get("u-alice")
	if pending.PendingEmail != "alice.new@example.com" {
		t.Errorf("pending email = %q, want normalized %q", pending.PendingEmail, "alice.new@example.com")
	}
	if pending.Email != "alice@example.com" {
		t.Errorf("live email changed before confirmation: %q", pending.Email)
	}

	msg := mail.last(t)
	if msg.to != "alice.new@example.com" {
		t.Errorf("mail sent to %q, want the new address", msg.to)
	}
	token := tokenFromMail(t, msg.body)
	if strings.Contains(msg.body, pending.ConfirmationTokenDigest) {
		t.Error("mail must carry the token, not its digest")
	}
	if pending.ConfirmationTokenDigest == token {
		t.Error("token must be stored as a digest, not plaintext")
	}

	updated, err := svc.Confirm(ctx, token)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if updated.Email != "alice.new@example.com" {
		t.Errorf("confirmed email = %q, want %q", updated.Email, "alice.new@example.com")
	}
	if updated.HasPendingEmailChange() {
		t.Error("pending fields should be cleared after confirmation")
	}

	// The token is single-use: redeeming it again must fail cleanly.
	if _, err := svc.Confirm(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second Confirm: got %v, want ErrTokenNotFound", err)
	}
}

func TestEmailChange_ExpiredToken(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com")
	ctx := context.Background()

	if err := svc.RequestChange(ctx, repo.get("u-alice"), "new@example.com"); err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	repo.backdate("u-alice", 25*time.Hour)

	token := tokenFromMail(t, mail.last(t).body)
	if _, err := svc.Confirm(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Confirm after 25h: got %v, want ErrTokenExpired", err)
	}

	u := repo.get("u-alice")
	if u.Email != "alice@example.com" {
		t.Errorf("expired confirmation must not change the email, got %q", u.Email)
	}
	if u.HasPendingEmailChange() {
		t.Error("expired pending change should be cleared")
	}
}

func TestEmailChange_JustInsideWindow(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com")
	ctx := context.Background()

	if err := svc.RequestChange(ctx, repo.get("u-alice"), "new@example.com"); err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	repo.backdate("u-alice", 23*time.Hour)

	token := tokenFromMail(t, mail.last(t).body)
	if _, err := svc.Confirm(ctx, token); err != nil {
		t.Errorf("Confirm at 23h should succeed: %v", err)
	}
}

func TestEmailChange_RejectsDuplicateAndInvalid(t *testing.T) {
	bob := &userdomain.User{ID: "u-bob", Username: "bob", Email: "bob@example.com"}
	repo := newMemUserRepo(aliceUser(), bob)
	svc := NewEmailService(repo, &captureMailer{}, &mockRecorder{}, nil, "https://polls.example.com")
	ctx := context.Background()

	if err := svc.RequestChange(ctx, repo.get("u-alice"), "bob@example.com"); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("taken address: got %v, want ErrDuplicateEmail", err)
	}
	// Re-requesting one's own current address is not a duplicate.
	if err := svc.RequestChange(ctx, repo.get("u-alice"), "alice@example.com"); err != nil {
		t.Errorf("own address: %v", err)
	}

	for _, bad := range []string{"", "no-at-sign", "a@b", "a b@example.com", "a@example."} {
		if err := svc.RequestChange(ctx, repo.get("u-alice"), bad); !errors.Is(err, ErrInvalidEmailFormat) {
			t.Errorf("RequestChange(%q): got %v, want ErrInvalidEmailFormat", bad, err)
		}
	}
}

func TestEmailChange_NotifierFailureKeepsPendingState(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{fail: errors.New("relay unreachable")}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com")

	if err := svc.RequestChange(context.Background(), repo.get("u-alice"), "new@example.com"); err != nil {
		t.Fatalf("RequestChange must not surface notifier failures: %v", err)
	}
	if !repo.get("u-alice").HasPendingEmailChange() {
		t.Error("pending change should be committed even when delivery fails")
	}
}

func TestEmailChange_RepeatRequestSupersedes(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com")
	ctx := context.Background()

	if err := svc.RequestChange(ctx, repo.get("u-alice"), "first@example.com"); err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	firstToken := tokenFromMail(t, mail.last(t).body)
	if err := svc.RequestChange(ctx, repo.get("u-alice"), "second@example.com"); err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	secondToken := tokenFromMail(t, mail.last(t).body)

	// Only the latest request survives; the earlier token is dead.
	if _, err := svc.Confirm(ctx, firstToken); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("superseded token: got %v, want ErrTokenNotFound", err)
	}
	updated, err := svc.Confirm(ctx, secondToken)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if updated.Email != "second@example.com" {
		t.Errorf("email = %q, want %q", updated.Email, "second@example.com")
	}
}

func TestEmailChange_ConcurrentRequestsLeaveOnePending(t *testing.T) {
	repo := newMemUserRepo(aliceUser())
	mail := &captureMailer{}
	svc := NewEmailService(repo, mail, &mockRecorder{}, nil, "https://polls.example.com")

	var wg sync.WaitGroup
	addrs := []string{"one@example.com", "two@example.com", "three@example.com", "four@example.com"}
	for _, addr := range addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			if err := svc.RequestChange(context.Background(), repo.get("u-alice"), addr); err != nil {
				t.Errorf("RequestChange(%s): %v", addr, err)
			}
		}(addr)
	}
	wg.Wait()

	u := repo.get("u-alice")
	if !u.HasPendingEmailChange() {
		t.Fatal("exactly one pending change should remain")
	}
	// Whichever write landed last, the stored digest must match one of the
	// delivered tokens, and confirming it must install its address.
	mail.mu.Lock()
	sent := append([]sentMail(nil), mail.sent...)
	mail.mu.Unlock()
	var confirmed *userdomain.User
	for _, msg := range sent {
		token := tokenFromMail(t, msg.body)
		if got, err := svc.Confirm(context.Background(), token); err == nil {
			confirmed = got
			break
		}
	}
	if confirmed == nil {
		t.Fatal("no delivered token could be confirmed")
	}
	if confirmed.Email != u.PendingEmail {
		t.Errorf("confirmed email = %q, want the last pending %q", confirmed.Email, u.PendingEmail)
	}
}
