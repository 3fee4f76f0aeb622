package onboard

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cloudfive/onboard/jwt"
	"github.com/cloudfive/onboard/session"
)

// Engine orchestrates the onboarding-token lifecycle: session creation, OTP
// issuance and verification, session reads, and the abandonment sweep. All
// session state lives in the backing store, so Engine methods hold no
// in-process locks and are safe for concurrent use after Build.
type Engine struct {
	config     Config
	sessions   *session.Store
	totp       *totpManager
	jwtManager *jwt.Manager
	leadStore  LeadStore
	sms        SMSSender
	mailer     Mailer
	validate   *validator.Validate
	audit      *auditDispatcher
	metrics    *Metrics

	// clock is injected for step-window tests.
	clock func() time.Time
}

// Close flushes and stops the audit dispatcher. It does not close the
// injected Redis client or collaborators; their owners do.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under buffer
// saturation.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, eventType, token string, success bool, failure error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: e.clock(),
		EventType: eventType,
		Token:     token,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	e.audit.Emit(ctx, event)
}
