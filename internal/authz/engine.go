// Package authz is the policy engine: per-resource-kind rule tables evaluated
// against (actor, action, target) triples, plus scoped list filtering.
package authz

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	auditdomain "community-poll-hub/backend/internal/audit/domain"
	"community-poll-hub/backend/internal/telemetry"
	userdomain "community-poll-hub/backend/internal/user/domain"
)

// Recorder is the audit sink the engine reports denials to. Matches
// audit.Recorder; redeclared here so the engine depends only on the sink shape.
type Recorder interface {
	Record(ctx context.Context, category auditdomain.Category, event, actorID, resource, metadata string)
}

// Engine dispatches authorization checks to the statically registered policy
// for each resource kind. Policies are pure; the engine adds auditing and
// metrics around them.
type Engine struct {
	registry map[Kind]Policy
	audit    Recorder
	metrics  *telemetry.Metrics
}

// NewEngine returns an Engine with the built-in policy registry. audit must be
// non-nil; metrics may be nil.
func NewEngine(audit Recorder, metrics *telemetry.Metrics) *Engine {
	return &Engine{
		registry: map[Kind]Policy{
			KindUser:           UserPolicy{},
			KindAdminDashboard: AdminDashboardPolicy{},
		},
		audit:   audit,
		metrics: metrics,
	}
}

// Authorize evaluates the policy for target's kind. Every denial is recorded
// to the audit sink (reason, actor, action, resource kind) before the decision
// is returned; the caller renders the response. actor is nil for anonymous
// requests.
func (e *Engine) Authorize(ctx context.Context, actor *userdomain.User, action Action, target Resource) Decision {
	ctx, span := otel.Tracer("authz").Start(ctx, "authz.Authorize")
	defer span.End()

	kind := target.ResourceKind()
	span.SetAttributes(
		attribute.String("authz.action", string(action)),
		attribute.String("authz.resource", string(kind)),
	)

	policy, ok := e.registry[kind]
	var decision Decision
	if !ok {
		decision = Deny(fmt.Sprintf("no policy registered for resource kind %q", kind))
	} else {
		decision = policy.Authorize(actor, action, target)
	}

	if !decision.Allowed {
		actorID := ""
		if actor != nil {
			actorID = actor.ID
		}
		meta := fmt.Sprintf(`{"action":%q,"reason":%q}`, string(action), decision.Reason)
		e.audit.Record(ctx, auditdomain.CategorySecurity, "authorization_denied", actorID, string(kind), meta)
		e.metrics.RecordDenial(ctx, string(kind))
	}
	return decision
}

// Scope returns the list filter for the actor over the given resource kind.
// Unknown kinds scope to none.
func (e *Engine) Scope(ctx context.Context, actor *userdomain.User, kind Kind) Filter {
	policy, ok := e.registry[kind]
	if !ok {
		return FilterNone
	}
	return policy.Scope(actor)
}
