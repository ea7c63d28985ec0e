// Package requestctx carries per-request values the transport layer hands to
// the core: the presented session token and the client IP. The core never
// reads ambient globals; everything flows through the context explicitly.
package requestctx

import "context"

type contextKey struct{ name string }

var (
	sessionTokenKey = contextKey{"session_token"}
	clientIPKey     = contextKey{"client_ip"}
)

// WithSessionToken returns a context carrying the signed session token
// presented by the client. The auth service reads it via SessionToken.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// SessionToken returns the session token from context and true if set;
// otherwise "", false. Absence means the request is anonymous.
func SessionToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionTokenKey).(string)
	return v, ok && v != ""
}

// WithClientIP returns a context carrying the client address for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client address from context, or "unknown" if unset.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
