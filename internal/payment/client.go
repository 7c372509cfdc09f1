// Package payment wraps the external payment provider's HTTP API.  The
// provider exposes a Stripe-style payment-intent flow: the server
// creates an intent for an amount and hands the client secret to the
// frontend, which completes the charge.  When no API key is configured
// the client runs in mock mode and fabricates deterministic intents, so
// checkout works end to end in development.
package payment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrProvider wraps any non-2xx response from the provider.  Handlers
// surface it as a generic payment failure; the original status text is
// logged, never exposed to clients.
var ErrProvider = errors.New("payment provider error")

// Intent is the subset of the provider's payment-intent object the
// application cares about.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Refund is the provider's refund object.
type Refund struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount"`
}

// Client talks to the payment provider.  A zero APIKey enables mock mode.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client with a sane default timeout.
func New(apiKey, baseURL string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Mock reports whether the client fabricates intents locally.
func (c *Client) Mock() bool { return c.APIKey == "" }

// CreateIntent creates a payment intent for the given amount and order
// reference.  In mock mode it returns a fabricated intent whose id and
// secret are random but well-formed.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string, orderID uint64) (Intent, error) {
	if amountCents <= 0 {
		return Intent{}, errors.New("amount must be positive")
	}
	if currency == "" {
		currency = "usd"
	}
	if c.Mock() {
		tok := randomToken()
		return Intent{
			ID:           "pi_mock_" + tok,
			ClientSecret: "pi_mock_" + tok + "_secret_" + randomToken(),
			AmountCents:  amountCents,
			Currency:     currency,
		}, nil
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("metadata[order_id]", strconv.FormatUint(orderID, 10))
	var intent Intent
	if err := c.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// CreateRefund refunds (part of) a payment intent.  In mock mode it
// succeeds immediately.
func (c *Client) CreateRefund(ctx context.Context, intentID string, amountCents int64) (Refund, error) {
	if intentID == "" {
		return Refund{}, errors.New("intent id required")
	}
	if c.Mock() {
		return Refund{ID: "re_mock_" + randomToken(), Status: "succeeded", AmountCents: amountCents}, nil
	}
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}
	var ref Refund
	if err := c.post(ctx, "/v1/refunds", form, &ref); err != nil {
		return Refund{}, err
	}
	return ref, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

func randomToken() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
