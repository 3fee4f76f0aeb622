package onboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudfive/onboard/session"
)

func createSession(t *testing.T, fx *engineFixture) string {
	t.Helper()
	res, err := fx.engine.CreateOnboarding(context.Background(), validIntake())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return res.Token
}

func TestRequestOTPDispatchesCode(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	dispatch, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if len(dispatch.Code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", dispatch.Code)
	}
	if !dispatch.Delivered || dispatch.DispatchID == "" {
		t.Fatalf("expected delivered dispatch, got %+v", dispatch)
	}

	msgs := fx.sms.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(msgs))
	}
	if msgs[0].To != "+639171234567" {
		t.Fatalf("sms sent to %q", msgs[0].To)
	}
	if !strings.Contains(msgs[0].Body, dispatch.Code) {
		t.Fatalf("sms body %q does not carry the code", msgs[0].Body)
	}
}

func TestRequestOTPPersistsSecretAndKeepsTTL(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	if _, err := fx.engine.RequestOTP(ctx, token); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	rec, err := fx.engine.sessions.Get(ctx, token)
	if err != nil {
		t.Fatalf("raw get failed: %v", err)
	}
	if rec.Secret == "" {
		t.Fatal("secret must be persisted with the session")
	}

	// The session had a live expiry; the re-arm keeps it rather than
	// stretching to the fallback window.
	ttl := fx.redis.TTL(session.DefaultPrefix + token)
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Fatalf("expected remaining ttl preserved, got %v", ttl)
	}
}

func TestRequestOTPFallsBackWhenTTLMissing(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	// Simulate a session stored without an expiry.
	if err := fx.client.Persist(ctx, session.DefaultPrefix+token).Err(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	if _, err := fx.engine.RequestOTP(ctx, token); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if ttl := fx.redis.TTL(session.DefaultPrefix + token); ttl != time.Hour {
		t.Fatalf("expected fallback window of 1h, got %v", ttl)
	}
}

func TestRequestOTPMissingToken(t *testing.T) {
	fx := newTestEngine(t)

	_, err := fx.engine.RequestOTP(context.Background(), "deadbeef")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestRequestOTPReplacesPreviousSecret(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	first, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	res, err := fx.engine.VerifyOTP(ctx, token, second.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.Valid {
		t.Fatal("latest code must verify")
	}

	if first.Code != second.Code {
		res, err = fx.engine.VerifyOTP(ctx, token, first.Code)
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if res.Valid {
			t.Fatal("superseded code must not verify")
		}
	}
}

func TestRequestOTPSMSFailureIsDegradedSuccess(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	fx.sms.err = errors.New("carrier unreachable")

	dispatch, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("dispatch failure must not surface as an error, got %v", err)
	}
	if dispatch.Delivered {
		t.Fatal("expected Delivered false on sms failure")
	}

	// The persisted secret stands despite the delivery failure.
	res, err := fx.engine.VerifyOTP(ctx, token, dispatch.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.Valid {
		t.Fatal("code must verify even when the sms never left")
	}

	snap := fx.engine.MetricsSnapshot()
	if snap.Counters[MetricSMSDispatchFailed] != 1 {
		t.Fatalf("expected 1 dispatch failure, got %d", snap.Counters[MetricSMSDispatchFailed])
	}
}

func TestVerifyOTPHappyPath(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	dispatch, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	res, err := fx.engine.VerifyOTP(ctx, token, dispatch.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.Valid {
		t.Fatal("expected valid result")
	}
	if res.AuthToken == "" {
		t.Fatal("expected a bearer token on success")
	}

	claims, err := fx.engine.jwtManager.Verify(res.AuthToken)
	if err != nil {
		t.Fatalf("minted token must verify: %v", err)
	}
	if claims.Subject != token {
		t.Fatalf("expected subject %q, got %q", token, claims.Subject)
	}
	if claims.Name != "Juan Dela Cruz" {
		t.Fatalf("unexpected claim name %q", claims.Name)
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	dispatch, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	wrong := "000000"
	if wrong == dispatch.Code {
		wrong = "000001"
	}
	res, err := fx.engine.VerifyOTP(ctx, token, wrong)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if res.Valid {
		t.Fatal("wrong code must not verify")
	}
	if res.AuthToken != "" {
		t.Fatal("no bearer token on failure")
	}
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	res, err := fx.engine.VerifyOTP(ctx, token, "123456")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if res.Valid {
		t.Fatal("session without a secret must not verify")
	}
}

func TestVerifyOTPMissingToken(t *testing.T) {
	fx := newTestEngine(t)

	_, err := fx.engine.VerifyOTP(context.Background(), "deadbeef", "123456")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestVerifyOTPRejectsStaleStep(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	issued := time.Unix(1700000000, 0)
	fx.engine.clock = func() time.Time { return issued }

	dispatch, err := fx.engine.RequestOTP(ctx, token)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// One full step later the code is stale; no skew window applies.
	fx.engine.clock = func() time.Time { return issued.Add(300 * time.Second) }

	res, err := fx.engine.VerifyOTP(ctx, token, dispatch.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if res.Valid {
		t.Fatal("code from an elapsed step must not verify")
	}
}

func TestRequestOTPConcurrent(t *testing.T) {
	fx := newTestEngine(t)
	ctx := context.Background()
	token := createSession(t, fx)

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatch, err := fx.engine.RequestOTP(ctx, token)
			if errors.Is(err, ErrStoreUnavailable) {
				// Lost the optimistic transaction to a concurrent
				// writer; the session state is untouched.
				return
			}
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			mu.Lock()
			codes = append(codes, dispatch.Code)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(codes) == 0 {
		t.Fatal("expected at least one successful request")
	}

	// The stored secret belongs to exactly one of the successful requests.
	rec, err := fx.engine.sessions.Get(ctx, token)
	if err != nil {
		t.Fatalf("raw get failed: %v", err)
	}
	current, err := fx.engine.totp.GenerateCode(rec.Secret, fx.engine.clock())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	found := false
	for _, code := range codes {
		if code == current {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("stored secret derives %q, not among dispatched codes %v", current, codes)
	}
}
