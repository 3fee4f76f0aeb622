package api

import (
	"encoding/json"
	"errors"
	"net/http"

	onboard "github.com/cloudfive/onboard"
	"github.com/cloudfive/onboard/leads"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, onboard.ErrInvalidMobileNumber),
		errors.Is(err, onboard.ErrInvalidEmailAddress):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, onboard.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, leads.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, leads.ErrClientNotFound),
		errors.Is(err, leads.ErrCredentialNotFound):
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, onboard.ErrStoreUnavailable),
		errors.Is(err, onboard.ErrLeadStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, onboard.ErrEngineNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
