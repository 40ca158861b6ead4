package clients

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siphon-data/siphon/pkg/auth"
	"github.com/siphon-data/siphon/pkg/config"
)

func testClient(t *testing.T, mutate func(*config.HTTPConfig)) *HTTPClient {
	t.Helper()
	cfg := config.NewSourceConfig("test")
	cfg.ServerURI = "http://unused"
	cfg.Endpoint = "/unused"
	if mutate != nil {
		mutate(&cfg.HTTP)
	}

	authenticator, err := auth.Resolve(cfg)
	require.NoError(t, err)

	c := NewHTTPClient(&cfg.HTTP, authenticator, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, nil)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	total, failed := c.Stats()
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 0, failed)
}

func TestClientDoFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := testClient(t, nil)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	total, failed := c.Stats()
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 1, failed)
}

func TestClientCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := testClient(t, func(h *config.HTTPConfig) {
		h.CircuitBreaker = true
		h.FailureThreshold = 2
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		_, err := c.Do(req)
		require.Error(t, err)
	}

	// Breaker is now open: the request is rejected before dialing
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	_, err := c.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.False(t, cb.Allow(), "breaker opens at the failure threshold")

	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.Allow(), "breaker half-opens after the cooldown")
	assert.False(t, cb.Allow(), "only one probe at a time")

	cb.RecordSuccess()
	assert.True(t, cb.Allow(), "breaker closes after a successful probe")
}

func TestCircuitBreakerReopensOnProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 50*time.Millisecond)

	cb.RecordFailure()
	assert.False(t, cb.Allow())

	time.Sleep(60 * time.Millisecond)
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.False(t, cb.Allow(), "failed probe reopens the breaker")
}
