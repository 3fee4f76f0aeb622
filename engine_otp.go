package onboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudfive/onboard/session"
)

// RequestOTP issues a fresh shared secret for the session, derives the
// passcode for the current time step, atomically persists the secret while
// re-arming the session TTL, and dispatches the code over SMS.
//
// TTL re-arm policy: the session keeps its remaining TTL when the backend
// reports one; when the expiry cannot be read (session stored without one, or
// it vanished between read and TTL lookup) the configured OTPWindow applies
// instead of aborting. Each (re-)request replaces the previous secret, so
// only the latest dispatched code verifies.
//
// SMS delivery failure after the secret is persisted is a degraded success:
// the dispatch is audited and the returned OTPDispatch carries Delivered
// false, but no error, and the persisted state stands.
func (e *Engine) RequestOTP(ctx context.Context, token string) (*OTPDispatch, error) {
	if e == nil || e.sessions == nil || e.sms == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		e.metricInc(MetricTokenNotFound)
		e.emitAudit(ctx, auditEventOTPRequest, token, false, ErrTokenNotFound, nil)
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	secret, err := e.totp.IssueSecret()
	if err != nil {
		return nil, fmt.Errorf("issue otp secret: %w", err)
	}
	code, err := e.totp.GenerateCode(secret, e.clock())
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	ttl, ttlErr := e.sessions.RemainingTTL(ctx, token)
	if ttlErr != nil || ttl <= 0 {
		ttl = e.config.Onboarding.OTPWindow
	}

	rec.Secret = secret
	if err := e.sessions.Refresh(ctx, token, rec, ttl); err != nil {
		e.emitAudit(ctx, auditEventOTPRequest, token, false, err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricOTPRequested)
	e.emitAudit(ctx, auditEventOTPRequest, token, true, nil, func() map[string]string {
		return map[string]string{"ttl_ms": fmt.Sprintf("%d", ttl.Milliseconds())}
	})

	body := fmt.Sprintf(e.config.OTP.SMSTemplate, code)
	dispatchID, err := e.sms.Send(ctx, rec.MobileNumber, body)
	if err != nil {
		// The secret is already persisted; delivery failure must not
		// unwind it.
		e.metricInc(MetricSMSDispatchFailed)
		e.emitAudit(ctx, auditEventSMSDispatch, token, false, err, func() map[string]string {
			return map[string]string{"mobile": rec.MobileNumber}
		})
		return &OTPDispatch{Code: code, Delivered: false}, nil
	}

	e.emitAudit(ctx, auditEventSMSDispatch, token, true, nil, func() map[string]string {
		return map[string]string{"sid": dispatchID}
	})
	return &OTPDispatch{Code: code, DispatchID: dispatchID, Delivered: true}, nil
}

// VerifyOTP checks a submitted passcode against the session's current secret
// within the current time step only. A session without a secret, or a code
// outside its step, yields Valid=false with no error. On success a
// short-lived bearer token keyed on session identity is minted.
func (e *Engine) VerifyOTP(ctx context.Context, token, code string) (*VerifyResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	rec, err := e.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		e.metricInc(MetricTokenNotFound)
		e.emitAudit(ctx, auditEventOTPVerify, token, false, ErrTokenNotFound, nil)
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if rec.Secret == "" {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerify, token, false, nil, func() map[string]string {
			return map[string]string{"reason": "no_secret"}
		})
		return &VerifyResult{Valid: false}, nil
	}

	ok, err := e.totp.VerifyCode(rec.Secret, code, e.clock())
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerify, token, false, nil, func() map[string]string {
			return map[string]string{"reason": "code_mismatch"}
		})
		return &VerifyResult{Valid: false}, nil
	}

	name := rec.FirstName + " " + rec.LastName
	authToken, err := e.jwtManager.Mint(token, name)
	if err != nil {
		return nil, fmt.Errorf("mint auth token: %w", err)
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerify, token, true, nil, nil)
	return &VerifyResult{Valid: true, AuthToken: authToken}, nil
}
