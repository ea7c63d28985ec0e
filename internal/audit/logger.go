// Package audit records security-relevant events. Every login outcome,
// authorization denial, and email-change outcome passes through here before
// the caller decides the user-facing response.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"community-poll-hub/backend/internal/audit/domain"
	auditrepo "community-poll-hub/backend/internal/audit/repository"
	"community-poll-hub/backend/internal/requestctx"
)

// Recorder writes a single audit event. Record is best-effort: failures are
// logged and do not affect the caller.
type Recorder interface {
	Record(ctx context.Context, category domain.Category, event, actorID, resource, metadata string)
}

// Logger implements Recorder using the audit repository. Client IP is taken
// from the request context.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns a Recorder that persists to repo.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// Record writes one audit log entry. Best-effort: errors are logged and not
// returned, so an unavailable audit store never blocks a request. Metadata
// must not contain credentials or confirmation tokens.
func (l *Logger) Record(ctx context.Context, category domain.Category, event, actorID, resource, metadata string) {
	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		Category:  category,
		Event:     event,
		ActorID:   actorID,
		Resource:  resource,
		IP:        requestctx.ClientIP(ctx),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s/%s: %v", category, event, err)
	}
}
