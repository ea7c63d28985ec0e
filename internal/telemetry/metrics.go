// Package telemetry exposes application metrics for the security core.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics counts security-relevant outcomes. A nil *Metrics is a valid no-op
// receiver so services and tests can run without a meter.
type Metrics struct {
	logins       metric.Int64Counter
	denials      metric.Int64Counter
	emailChanges metric.Int64Counter
}

// NewMetrics registers the core's counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	logins, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by result"))
	if err != nil {
		return nil, err
	}
	denials, err := meter.Int64Counter("authz.denials",
		metric.WithDescription("Authorization denials by resource kind"))
	if err != nil {
		return nil, err
	}
	emailChanges, err := meter.Int64Counter("account.email_changes",
		metric.WithDescription("Email-change workflow outcomes"))
	if err != nil {
		return nil, err
	}
	return &Metrics{logins: logins, denials: denials, emailChanges: emailChanges}, nil
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordDenial counts one authorization denial for a resource kind.
func (m *Metrics) RecordDenial(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.denials.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", kind)))
}

// RecordEmailChange counts one email-change outcome (requested, confirmed,
// duplicate_email, invalid_format, token_not_found, token_expired).
func (m *Metrics) RecordEmailChange(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.emailChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
