// ABOUTME: Tests for the per-IP limiter registry and the 429 response path
// ABOUTME: Covers bucket exhaustion, per-client isolation, and idle eviction

package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterRegistryExhaustsBurst(t *testing.T) {
	reg := newLimiterRegistry(0.001, 2)
	defer reg.Close()

	assert.True(t, reg.Allow("10.0.0.1"))
	assert.True(t, reg.Allow("10.0.0.1"))
	assert.False(t, reg.Allow("10.0.0.1"))
}

func TestLimiterRegistryIsolatesClients(t *testing.T) {
	reg := newLimiterRegistry(0.001, 1)
	defer reg.Close()

	assert.True(t, reg.Allow("10.0.0.1"))
	assert.False(t, reg.Allow("10.0.0.1"))
	assert.True(t, reg.Allow("10.0.0.2"))
}

func TestLimiterRegistryEvictsIdle(t *testing.T) {
	reg := newLimiterRegistry(1, 1)
	defer reg.Close()

	reg.Allow("10.0.0.1")
	reg.mu.Lock()
	reg.clients["10.0.0.1"].lastSeen = time.Now().Add(-limiterTTL - time.Minute)
	reg.mu.Unlock()

	reg.evictIdle()

	reg.mu.Lock()
	_, ok := reg.clients["10.0.0.1"]
	reg.mu.Unlock()
	assert.False(t, ok)
}

func TestRateLimitedEndpointReturns429(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1

	g, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	srv := httptest.NewServer(g.httpServer.Handler)
	t.Cleanup(func() {
		srv.Close()
		g.broadcaster.Close()
		g.limiter.Close()
		require.NoError(t, g.store.Close())
	})

	resp, err := http.Get(srv.URL + "/api/ai/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/ai/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, codeRateLimited, errorCode(t, resp))

	// Health endpoint is exempt from rate limiting
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:54023"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.RemoteAddr = "192.0.2.7"
	assert.Equal(t, "192.0.2.7", clientIP(r))
}
