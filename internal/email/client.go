// Package email sends transactional mail through the provider's JSON
// HTTP API.  All sends are best effort: callers log the returned error
// and continue, so a mail outage never fails an order or a refund.
// Without an API key the client only logs what it would have sent.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client posts messages to the email provider.
type Client struct {
	APIKey  string
	BaseURL string
	From    string
	HTTP    *http.Client
}

// New returns a Client with a sane default timeout.
func New(apiKey, baseURL, from string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		From:    from,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send delivers one message.  With no API key configured it logs the
// subject and recipient and returns nil.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if c.APIKey == "" {
		log.Printf("email: no provider configured, skipping %q to %s", subject, to)
		return nil
	}
	payload, err := json.Marshal(message{From: c.From, To: to, Subject: subject, HTML: html})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
