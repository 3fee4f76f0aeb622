package onboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudfive/onboard/session"
)

// SweepAbandoned scans all live sessions and promotes those within the
// abandonment threshold of expiry into the durable lead store, sending a
// follow-up email per promoted session.
//
// The enumeration-then-check pattern is deliberately non-atomic: a session
// expiring between the key scan and its TTL check simply reads as gone and
// is skipped. Per-session persistence or notification failures are audited
// and counted without aborting the remainder of the sweep; delivery is
// at-least-once.
//
// Sweeps do not deduplicate: re-running before a flagged session naturally
// expires writes another lead and resends the notification. Known gap,
// preserved as current behavior.
func (e *Engine) SweepAbandoned(ctx context.Context) (*SweepReport, error) {
	if e == nil || e.sessions == nil || e.leadStore == nil || e.mailer == nil {
		return nil, ErrEngineNotReady
	}

	e.metricInc(MetricSweepRuns)
	report := &SweepReport{}

	it := e.sessions.ActiveTokens(ctx)
	for it.Next(ctx) {
		token := it.Token()
		report.Scanned++

		ttl, err := e.sessions.RemainingTTL(ctx, token)
		if errors.Is(err, session.ErrNotFound) {
			// Expired between enumeration and check; already gone.
			continue
		}
		if err != nil {
			e.emitAudit(ctx, auditEventSweep, token, false, err, nil)
			continue
		}
		if ttl > e.config.Sweep.AbandonThreshold {
			continue
		}
		report.Flagged++

		rec, err := e.sessions.Get(ctx, token)
		if errors.Is(err, session.ErrNotFound) {
			continue
		}
		if err != nil {
			e.emitAudit(ctx, auditEventSweep, token, false, err, nil)
			continue
		}

		lead := rec.Redacted()
		leadID, err := e.leadStore.CreateAbandoned(ctx, *lead)
		if err != nil {
			report.PersistFailed++
			e.emitAudit(ctx, auditEventLeadCapture, token, false, err, nil)
			continue
		}
		report.Persisted++
		e.metricInc(MetricLeadsCaptured)
		e.emitAudit(ctx, auditEventLeadCapture, token, true, nil, func() map[string]string {
			return map[string]string{"lead_id": leadID}
		})

		if err := e.notifyAbandoned(ctx, lead); err != nil {
			report.NotifyFailed++
			e.metricInc(MetricLeadNotifyFailed)
			e.emitAudit(ctx, auditEventLeadNotify, token, false, err, nil)
			continue
		}
		e.emitAudit(ctx, auditEventLeadNotify, token, true, nil, nil)
	}
	if err := it.Err(); err != nil {
		return report, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return report, nil
}

func (e *Engine) notifyAbandoned(ctx context.Context, rec *session.Record) error {
	subject := e.config.Sweep.NotifySubject
	text := fmt.Sprintf("Hello %s, your application is almost complete. Pick up where you left off and finish opening your account.", rec.FirstName)
	html := fmt.Sprintf("<div>Hello <strong>%s</strong>,<p>Your application is almost complete.</p><p>Pick up where you left off and finish opening your account.</p></div>", rec.FirstName)
	return e.mailer.Send(ctx, rec.EmailAddress, subject, text, html)
}
