package vision

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerResp = `{
  "result": {
    "is_plant": {"binary": true},
    "classification": {
      "suggestions": [
        {
          "name": "Solanum lycopersicum",
          "probability": 0.97,
          "details": {"common_names": ["tomato"]}
        }
      ]
    }
  }
}`

func TestIdentifyParsesProviderResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identification", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("Api-Key"))
		_, _ = w.Write([]byte(providerResp))
	}))
	defer srv.Close()

	c := New("k", srv.URL, newMemoryCache(8))
	id, err := c.Identify(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	assert.Equal(t, "Solanum lycopersicum", id.Name)
	assert.Equal(t, []string{"tomato"}, id.CommonNames)
	assert.InDelta(t, 0.97, id.Confidence, 1e-9)
	assert.True(t, id.IsPlant)
}

func TestIdentifyCachesByImageHash(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(providerResp))
	}))
	defer srv.Close()

	c := New("k", srv.URL, newMemoryCache(8))
	_, err := c.Identify(context.Background(), "same-image")
	require.NoError(t, err)
	_, err = c.Identify(context.Background(), "same-image")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second lookup must be served from cache")

	_, err = c.Identify(context.Background(), "other-image")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdentifyFallsBackWhenProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("k", srv.URL, newMemoryCache(8))
	id, err := c.Identify(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	assert.True(t, id.IsPlant)
	assert.Equal(t, "offline suggestion", id.Note)
	assert.InDelta(t, 0.25, id.Confidence, 1e-9)
}

func TestIdentifyFallsBackOnQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("k", srv.URL, newMemoryCache(8))
	id, err := c.Identify(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	assert.Equal(t, "offline suggestion", id.Note)
}

func TestIdentifyWithoutKeyUsesCannedResult(t *testing.T) {
	c := New("", "https://unused.example", newMemoryCache(8))
	id, err := c.Identify(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	assert.NotEmpty(t, id.Name)
	assert.Equal(t, "offline suggestion", id.Note)
}

func TestHashImageStable(t *testing.T) {
	assert.Equal(t, HashImage("abc"), HashImage("abc"))
	assert.NotEqual(t, HashImage("abc"), HashImage("abd"))
	assert.Len(t, HashImage("abc"), 64)
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	c := newMemoryCache(2)
	ctx := context.Background()
	c.Set(ctx, "a", Identification{Name: "a"})
	c.Set(ctx, "b", Identification{Name: "b"})
	c.Set(ctx, "c", Identification{Name: "c"})

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should have been evicted")
	got, ok := c.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, "c", got.Name)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := newMemoryCache(8)
	ctx := context.Background()
	c.Set(ctx, "k", Identification{Name: "v"})
	c.entries["k"] = memoryEntry{
		id:       c.entries["k"].id,
		storedAt: time.Now().Add(-entryTTL - time.Minute),
	}
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheOverwriteKeepsSingleSlot(t *testing.T) {
	c := newMemoryCache(2)
	ctx := context.Background()
	c.Set(ctx, "a", Identification{Name: "a1"})
	c.Set(ctx, "a", Identification{Name: "a2"})
	c.Set(ctx, "b", Identification{Name: "b"})

	got, ok := c.Get(ctx, "a")
	assert.True(t, ok, "overwriting must not consume an extra slot")
	assert.Equal(t, "a2", got.Name)
}
