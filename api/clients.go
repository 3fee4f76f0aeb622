package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/cloudfive/onboard/leads"
	"github.com/cloudfive/onboard/password"
)

type createClientRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	MiddleName      string `json:"middleName,omitempty"`
	SuffixName      string `json:"suffixName,omitempty"`
	EmailAddress    string `json:"emailAddress"`
	MobileNumber    string `json:"mobileNumber"`
	TelephoneNumber string `json:"telephoneNumber,omitempty"`
}

type createClientResponse struct {
	leads.Client
	// Password is the generated temporary credential, returned once at
	// creation and delivered again by welcome email.
	Password string `json:"password"`
}

func (a *API) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	if a.clients == nil || a.hasher == nil {
		writeError(w, http.StatusServiceUnavailable, "client store not configured")
		return
	}

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.EmailAddress == "" {
		writeError(w, http.StatusUnprocessableEntity, "firstName, lastName and emailAddress are required")
		return
	}

	tempPassword, err := password.GenerateTemp(16)
	if err != nil {
		mapError(w, err)
		return
	}
	hash, err := a.hasher.Hash(tempPassword)
	if err != nil {
		mapError(w, err)
		return
	}

	client := &leads.Client{
		ClientID:        uuid.NewString(),
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		MiddleName:      req.MiddleName,
		SuffixName:      req.SuffixName,
		EmailAddress:    req.EmailAddress,
		MobileNumber:    req.MobileNumber,
		TelephoneNumber: req.TelephoneNumber,
	}
	if err := a.clients.CreateClient(r.Context(), client); err != nil {
		mapError(w, err)
		return
	}
	if err := a.clients.PutCredential(r.Context(), client.ClientID, hash); err != nil {
		mapError(w, err)
		return
	}

	a.sendWelcome(r, client.EmailAddress, client.FirstName, tempPassword)

	writeJSON(w, http.StatusOK, createClientResponse{Client: *client, Password: tempPassword})
}

// sendWelcome is fire-and-forget: mail failure is logged and does not fail
// the already-persisted client creation.
func (a *API) sendWelcome(r *http.Request, email, firstName, tempPassword string) {
	if a.mailer == nil {
		return
	}
	subject := "Welcome to CloudFive Bank"
	text := fmt.Sprintf("Hello %s, you may now access your account. Please use your email address as your username; %s is your temporary password.", firstName, tempPassword)
	html := fmt.Sprintf("<div>Hello <strong>%s</strong>,<p>Thank you for choosing us!</p><p>Your application has been pre-approved.</p><p>Please use your email address as your username.<br/>Your temporary password is <code>%s</code></p></div>", firstName, tempPassword)
	if err := a.mailer.Send(r.Context(), email, subject, text, html); err != nil {
		a.logger.Warn("welcome email failed", "error", err)
	}
}

type loginRequest struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a *API) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	if a.clients == nil || a.hasher == nil || a.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "client store not configured")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	client, err := a.clients.FindClientByEmail(r.Context(), req.EmailAddress)
	if err != nil {
		mapError(w, err)
		return
	}
	cred, err := a.clients.GetCredential(r.Context(), client.ClientID)
	if err != nil {
		mapError(w, err)
		return
	}

	ok, err := a.hasher.Verify(req.Password, cred.PasswordHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := a.tokens.Mint(client.ClientID, client.FirstName+" "+client.LastName)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
