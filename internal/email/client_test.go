package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithoutKeyIsNoop(t *testing.T) {
	c := New("", "https://unused.example", "orders@example.com")
	assert.NoError(t, c.Send(context.Background(), "to@example.com", "hi", "<p>hi</p>"))
}

func TestSendPostsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(body, &m))
		assert.Equal(t, "orders@example.com", m["from"])
		assert.Equal(t, "buyer@example.com", m["to"])
		assert.Equal(t, "Order confirmed", m["subject"])
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New("key", srv.URL, "orders@example.com")
	assert.NoError(t, c.Send(context.Background(), "buyer@example.com", "Order confirmed", "<p>thanks</p>"))
}

func TestSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("key", srv.URL, "orders@example.com")
	assert.Error(t, c.Send(context.Background(), "x@example.com", "s", "b"))
}
