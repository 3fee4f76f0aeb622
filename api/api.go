// Package api mounts the onboarding REST surface over the engine: intake,
// OTP issuance and verification, session reads, the abandonment sweep
// trigger, and permanent client creation and login.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	onboard "github.com/cloudfive/onboard"
	"github.com/cloudfive/onboard/jwt"
	"github.com/cloudfive/onboard/leads"
	"github.com/cloudfive/onboard/password"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	engine  *onboard.Engine
	clients *leads.Store
	hasher  *password.Argon2
	tokens  *jwt.Manager
	mailer  onboard.Mailer
	logger  *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured request logger. Defaults to a JSON logger
// on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// New creates a new API instance. clients may be nil when the client surface
// is not deployed; its routes then answer 503.
func New(engine *onboard.Engine, clients *leads.Store, hasher *password.Argon2, tokens *jwt.Manager, mailer onboard.Mailer, opts ...Option) *API {
	a := &API{
		engine:  engine,
		clients: clients,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  mailer,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(a.requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/ping", a.handlePing)

	r.Post("/onboarding", a.handleCreateOnboarding)
	r.Get("/onboarding/{token}", a.handleGetOnboarding)
	r.Post("/onboarding/{token}/otp", a.handleRequestOTP)
	r.Post("/otp/verify", a.handleVerifyOTP)
	r.Post("/onboarding/sweep", a.handleSweep)

	r.Post("/clients", a.handleCreateClient)
	r.Post("/clients/login", a.handleClientLogin)

	return r
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (a *API) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"greeting": "pong",
		"date":     time.Now().Format(time.RFC3339),
		"url":      r.URL.Path,
	})
}
