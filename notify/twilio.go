// Package notify carries the outbound delivery clients: Twilio for OTP
// texts, SendGrid for transactional mail. Both are thin REST clients behind
// the engine's SMSSender and Mailer interfaces; the engine treats every send
// as fire-and-forget and never retries here.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioClient dispatches SMS through Twilio's Messages endpoint.
type TwilioClient struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// NewTwilioClient builds a client for the given account. The from number is
// the provisioned sender.
func NewTwilioClient(accountSID, authToken, from string) *TwilioClient {
	return &TwilioClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    twilioAPIBase,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

// WithBaseURL redirects API calls, for tests.
func (c *TwilioClient) WithBaseURL(base string) *TwilioClient {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// Send posts one message and returns Twilio's message SID.
func (c *TwilioClient) Send(ctx context.Context, toNumber, body string) (string, error) {
	form := url.Values{}
	form.Set("To", toNumber)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("notify: build sms request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("notify: sms dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("notify: sms dispatch: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("notify: decode sms response: %w", err)
	}
	return out.SID, nil
}
