package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	onboard "github.com/cloudfive/onboard"
	"github.com/cloudfive/onboard/session"
)

func (a *API) handleCreateOnboarding(w http.ResponseWriter, r *http.Request) {
	var rec session.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := a.engine.CreateOnboarding(withClientIP(r), rec)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	rec, err := a.engine.GetOnboarding(withClientIP(r), token)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	dispatch, err := a.engine.RequestOTP(withClientIP(r), token)
	if err != nil {
		mapError(w, err)
		return
	}
	if !dispatch.Delivered {
		a.logger.Warn("otp sms dispatch failed", "token", token)
	}
	writeJSON(w, http.StatusOK, dispatch)
}

type verifyRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

func (a *API) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := a.engine.VerifyOTP(withClientIP(r), req.Token, req.OTP)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleSweep(w http.ResponseWriter, r *http.Request) {
	report, err := a.engine.SweepAbandoned(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func withClientIP(r *http.Request) context.Context {
	return onboard.WithClientIP(r.Context(), r.RemoteAddr)
}
