package onboard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudfive/onboard/session"
)

// CreateOnboarding validates the intake payload, mints an opaque session
// token, normalizes phone fields, and stores the session with the configured
// initial TTL. The token is the session's only external identifier.
//
// Any secret supplied by the caller is discarded: a session gains a secret
// only through RequestOTP.
func (e *Engine) CreateOnboarding(ctx context.Context, rec session.Record) (*CreateResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.validateIntake(&rec); err != nil {
		e.metricInc(MetricOnboardingRejected)
		e.emitAudit(ctx, auditEventOnboardingCreate, "", false, err, nil)
		return nil, err
	}

	token, err := newToken(e.config.Onboarding.TokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate onboarding token: %w", err)
	}

	prefix := e.config.Onboarding.CountryCodePrefix
	rec.MobileNumber = normalizePhone(rec.MobileNumber, prefix)
	rec.TelephoneNumber = normalizePhone(rec.TelephoneNumber, prefix)
	rec.Secret = ""

	if err := e.sessions.Create(ctx, token, &rec, e.config.Onboarding.InitialTTL); err != nil {
		e.emitAudit(ctx, auditEventOnboardingCreate, token, false, err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricOnboardingCreated)
	e.emitAudit(ctx, auditEventOnboardingCreate, token, true, nil, func() map[string]string {
		return map[string]string{"mobile": rec.MobileNumber}
	})
	return &CreateResult{Token: token}, nil
}

// GetOnboarding returns the session stored under token with the OTP secret
// stripped. Reading never alters the session's TTL.
func (e *Engine) GetOnboarding(ctx context.Context, token string) (*session.Record, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		e.metricInc(MetricTokenNotFound)
		e.emitAudit(ctx, auditEventOnboardingRead, token, false, ErrTokenNotFound, nil)
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricOnboardingRead)
	e.emitAudit(ctx, auditEventOnboardingRead, token, true, nil, nil)
	return rec.Redacted(), nil
}

func newToken(entropy int) (string, error) {
	raw := make([]byte, entropy)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func normalizePhone(number, prefix string) string {
	if number == "" || prefix == "" {
		return number
	}
	if strings.HasPrefix(number, prefix) {
		return number
	}
	return prefix + number
}
