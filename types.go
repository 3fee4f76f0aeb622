package onboard

import (
	"context"

	"github.com/cloudfive/onboard/session"
)

// CreateResult is returned by [Engine.CreateOnboarding]. The token is the
// session's sole external identifier: hex-encoded cryptographically random
// bytes, never sequential.
type CreateResult struct {
	Token string `json:"token"`
}

// OTPDispatch is returned by [Engine.RequestOTP]. Code mirrors the dispatched
// passcode for test surfaces; production deployments should not forward it to
// clients. Delivered is false when the SMS collaborator failed after the
// secret was already persisted — a degraded success, not an error.
type OTPDispatch struct {
	Code       string `json:"otp"`
	DispatchID string `json:"sid,omitempty"`
	Delivered  bool   `json:"-"`
}

// VerifyResult is returned by [Engine.VerifyOTP]. A wrong or premature code
// yields Valid=false with no error. AuthToken is set only on success: a
// short-lived bearer credential keyed on session identity (no permanent
// account exists yet).
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	AuthToken string `json:"authToken,omitempty"`
}

// SweepReport summarizes one abandonment sweep.
type SweepReport struct {
	Scanned       int `json:"scanned"`
	Flagged       int `json:"flagged"`
	Persisted     int `json:"persisted"`
	NotifyFailed  int `json:"notifyFailed"`
	PersistFailed int `json:"persistFailed"`
}

// LeadStore persists abandoned onboarding sessions durably. Implementations
// must treat every call as an insert: the sweep deliberately does not
// deduplicate across invocations.
type LeadStore interface {
	CreateAbandoned(ctx context.Context, rec session.Record) (id string, err error)
}

// SMSSender dispatches a passcode text. Fire-and-forget from the engine's
// perspective: a returned error is audited, never retried, and never unwinds
// persisted session state.
type SMSSender interface {
	Send(ctx context.Context, toNumber, body string) (deliveryID string, err error)
}

// Mailer sends a notification email. Same delivery semantics as SMSSender.
type Mailer interface {
	Send(ctx context.Context, toAddress, subject, text, html string) error
}
