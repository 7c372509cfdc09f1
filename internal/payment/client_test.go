package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentMockMode(t *testing.T) {
	c := New("", "https://unused.example")
	require.True(t, c.Mock())

	intent, err := c.CreateIntent(context.Background(), 1250, "usd", 7)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "pi_mock_"))
	assert.Contains(t, intent.ClientSecret, "_secret_")
	assert.Equal(t, int64(1250), intent.AmountCents)
	assert.Equal(t, "usd", intent.Currency)

	// Mock intents are still unique per call.
	other, err := c.CreateIntent(context.Background(), 1250, "usd", 7)
	require.NoError(t, err)
	assert.NotEqual(t, intent.ID, other.ID)
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	c := New("", "https://unused.example")
	_, err := c.CreateIntent(context.Background(), 0, "usd", 1)
	assert.Error(t, err)
}

func TestCreateIntentPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4200", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "88", r.PostForm.Get("metadata[order_id]"))
		_ = json.NewEncoder(w).Encode(Intent{
			ID: "pi_123", ClientSecret: "pi_123_secret_x", AmountCents: 4200, Currency: "usd",
		})
	}))
	defer srv.Close()

	c := New("sk_test_key", srv.URL)
	intent, err := c.CreateIntent(context.Background(), 4200, "usd", 88)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_x", intent.ClientSecret)
}

func TestCreateIntentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"card_declined"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := New("sk_test_key", srv.URL)
	_, err := c.CreateIntent(context.Background(), 100, "usd", 1)
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCreateRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))
		assert.Equal(t, "500", r.PostForm.Get("amount"))
		_ = json.NewEncoder(w).Encode(Refund{ID: "re_1", Status: "succeeded", AmountCents: 500})
	}))
	defer srv.Close()

	c := New("sk_test_key", srv.URL)
	ref, err := c.CreateRefund(context.Background(), "pi_123", 500)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", ref.Status)
}

func TestCreateRefundMockMode(t *testing.T) {
	c := New("", "https://unused.example")
	ref, err := c.CreateRefund(context.Background(), "pi_any", 250)
	require.NoError(t, err)
	assert.Equal(t, "succeeded", ref.Status)
	assert.Equal(t, int64(250), ref.AmountCents)

	_, err = c.CreateRefund(context.Background(), "", 250)
	assert.Error(t, err)
}
