package domain

import "time"

// Category groups audit events the way the application's log channels do.
type Category string

const (
	CategoryAuth     Category = "auth"
	CategorySecurity Category = "security"
	CategoryAdmin    Category = "admin"
	CategoryApp      Category = "app"
)

// AuditLog represents one audit event. ActorID may be empty for anonymous
// requests (failed logins, unauthenticated access attempts). Metadata is a
// small JSON object; it must never contain passwords or confirmation tokens.
type AuditLog struct {
	ID        string
	Category  Category
	Event     string
	ActorID   string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
