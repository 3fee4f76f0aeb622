package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const sendgridAPIBase = "https://api.sendgrid.com"

// SendGridClient sends transactional mail through SendGrid's v3 API.
type SendGridClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromEmail  string
	fromName   string
}

// NewSendGridClient builds a client sending as the given address.
func NewSendGridClient(apiKey, fromEmail, fromName string) *SendGridClient {
	return &SendGridClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    sendgridAPIBase,
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
	}
}

// WithBaseURL redirects API calls, for tests.
func (c *SendGridClient) WithBaseURL(base string) *SendGridClient {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress   `json:"from"`
	Subject string      `json:"subject"`
	Content []sgContent `json:"content"`
}

// Send posts one message. SendGrid acknowledges with 202 and no body.
func (c *SendGridClient) Send(ctx context.Context, toAddress, subject, text, html string) error {
	mail := sgMail{
		From:    sgAddress{Email: c.fromEmail, Name: c.fromName},
		Subject: subject,
	}
	mail.Personalizations = append(mail.Personalizations, struct {
		To []sgAddress `json:"to"`
	}{To: []sgAddress{{Email: toAddress}}})
	// Content order matters to SendGrid: text/plain before text/html.
	if text != "" {
		mail.Content = append(mail.Content, sgContent{Type: "text/plain", Value: text})
	}
	if html != "" {
		mail.Content = append(mail.Content, sgContent{Type: "text/html", Value: html})
	}

	payload, err := json.Marshal(mail)
	if err != nil {
		return fmt.Errorf("notify: encode mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: mail dispatch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notify: mail dispatch: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
