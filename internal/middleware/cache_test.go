package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriterCountsFullSizePastLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}

	n, err := cw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	n, err = cw.Write([]byte("ghij"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// The client always receives the full body.
	assert.Equal(t, "0123456789abcdefghij", rec.Body.String())
	// The capture buffer is clipped at the limit while size keeps
	// counting, so oversize responses are detectable.
	assert.Equal(t, "0123456789", cw.buf.String())
	assert.EqualValues(t, 20, cw.size)
}

func TestOversizeResponseIsNotCacheable(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}
	_, err := cw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)

	// A clipped capture must never be stored; serving it would hand
	// out truncated JSON on every hit until the TTL expires.
	assert.False(t, cacheable(cw.status, cw.size, cw.limit))
}

func TestCacheableBounds(t *testing.T) {
	assert.True(t, cacheable(http.StatusOK, 100, 100))
	assert.True(t, cacheable(http.StatusOK, 1<<30, 0)) // no limit configured
	assert.False(t, cacheable(http.StatusOK, 101, 100))
	assert.False(t, cacheable(http.StatusNotFound, 10, 100))
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"farms":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}
