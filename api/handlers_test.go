package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onboard "github.com/cloudfive/onboard"
	"github.com/cloudfive/onboard/session"
)

type stubSMS struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubSMS) Send(_ context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return "SM0001", nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubMailer) Send(_ context.Context, to, _, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

type stubLeadStore struct {
	mu    sync.Mutex
	leads []session.Record
}

func (s *stubLeadStore) CreateAbandoned(_ context.Context, rec session.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, rec)
	return "lead-1", nil
}

type apiFixture struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	sms    *stubSMS
	mailer *stubMailer
	leads  *stubLeadStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := onboard.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("test-signing-secret")

	sms := &stubSMS{}
	mailer := &stubMailer{}
	leadStore := &stubLeadStore{}

	engine, err := onboard.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLeadStore(leadStore).
		WithSMSSender(sms).
		WithMailer(mailer).
		Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := New(engine, nil, nil, nil, mailer, WithLogger(logger))

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)

	return &apiFixture{server: srv, redis: mr, sms: sms, mailer: mailer, leads: leadStore}
}

func (fx *apiFixture) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(fx.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (fx *apiFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(fx.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func intakePayload() map[string]string {
	return map[string]string{
		"firstName":    "Juan",
		"lastName":     "Dela Cruz",
		"emailAddress": "juan@example.com",
		"mobileNumber": "639171234567",
	}
}

func TestPing(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.get(t, "/ping")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "pong", body["greeting"])
}

func TestCreateOnboardingEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.postJSON(t, "/onboarding", intakePayload())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[onboard.CreateResult](t, resp)
	assert.Len(t, body.Token, 64)
}

func TestCreateOnboardingRejectsInvalidPayload(t *testing.T) {
	fx := newAPIFixture(t)

	payload := intakePayload()
	payload["mobileNumber"] = "12345"
	resp := fx.postJSON(t, "/onboarding", payload)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateOnboardingMalformedBody(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Post(fx.server.URL+"/onboarding", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOnboardingEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	created := decodeBody[onboard.CreateResult](t, fx.postJSON(t, "/onboarding", intakePayload()))

	resp := fx.get(t, "/onboarding/"+created.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "+639171234567", body["mobileNumber"])
	assert.NotContains(t, body, "secret")
}

func TestGetOnboardingNotFound(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.get(t, "/onboarding/deadbeef")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOTPFlowEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	created := decodeBody[onboard.CreateResult](t, fx.postJSON(t, "/onboarding", intakePayload()))

	resp := fx.postJSON(t, "/onboarding/"+created.Token+"/otp", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dispatch := decodeBody[onboard.OTPDispatch](t, resp)
	require.Len(t, dispatch.Code, 6)

	resp = fx.postJSON(t, "/otp/verify", map[string]string{
		"token": created.Token,
		"otp":   dispatch.Code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verify := decodeBody[onboard.VerifyResult](t, resp)
	assert.True(t, verify.Valid)
	assert.NotEmpty(t, verify.AuthToken)
}

func TestVerifyOTPWrongCodeEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	created := decodeBody[onboard.CreateResult](t, fx.postJSON(t, "/onboarding", intakePayload()))
	dispatch := decodeBody[onboard.OTPDispatch](t, fx.postJSON(t, "/onboarding/"+created.Token+"/otp", nil))

	wrong := "000000"
	if wrong == dispatch.Code {
		wrong = "000001"
	}
	resp := fx.postJSON(t, "/otp/verify", map[string]string{"token": created.Token, "otp": wrong})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verify := decodeBody[onboard.VerifyResult](t, resp)
	assert.False(t, verify.Valid)
	assert.Empty(t, verify.AuthToken)
}

func TestRequestOTPNotFoundEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.postJSON(t, "/onboarding/deadbeef/otp", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSweepEndpoint(t *testing.T) {
	fx := newAPIFixture(t)

	created := decodeBody[onboard.CreateResult](t, fx.postJSON(t, "/onboarding", intakePayload()))
	fx.redis.SetTTL(session.DefaultPrefix+created.Token, 90*time.Second)

	resp := fx.postJSON(t, "/onboarding/sweep", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[onboard.SweepReport](t, resp)
	assert.Equal(t, 1, report.Flagged)
	assert.Equal(t, 1, report.Persisted)
	assert.Len(t, fx.leads.leads, 1)
	assert.Equal(t, []string{"juan@example.com"}, fx.mailer.sent)
}

func TestClientRoutesWithoutStore(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.postJSON(t, "/clients", map[string]string{
		"firstName":    "Juan",
		"lastName":     "Dela Cruz",
		"emailAddress": "juan@example.com",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = fx.postJSON(t, "/clients/login", map[string]string{
		"emailAddress": "juan@example.com",
		"password":     "whatever",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
