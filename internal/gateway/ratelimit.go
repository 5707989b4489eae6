// ABOUTME: Per-client-IP token bucket rate limiting for HTTP ingress
// ABOUTME: Limiters are kept in a TTL-evicted registry to bound memory use

package gateway

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterTTL is how long an idle client's limiter survives before eviction.
const limiterTTL = 10 * time.Minute

// limiterEntry tracks one client's limiter and when it was last used.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterRegistry holds one token bucket per client IP. Idle entries are
// evicted by a background goroutine so the map does not grow without bound.
type limiterRegistry struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	done    chan struct{}
	closed  bool
}

// newLimiterRegistry creates a registry with the given per-client rate.
// A background goroutine periodically evicts idle limiters.
func newLimiterRegistry(rps float64, burst int) *limiterRegistry {
	r := &limiterRegistry{
		clients: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}
	go r.cleanup()
	return r
}

// Allow reports whether a request from the given client IP may proceed now.
func (r *limiterRegistry) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup runs in a background goroutine, evicting idle limiters.
func (r *limiterRegistry) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.done:
			return
		}
	}
}

// evictIdle removes limiters that have not been used within limiterTTL.
func (r *limiterRegistry) evictIdle() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for ip, entry := range r.clients {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(r.clients, ip)
		}
	}
}

// Close stops the background eviction goroutine. Safe to call multiple times.
func (r *limiterRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		close(r.done)
		r.closed = true
	}
}

// rateLimited wraps an HTTP handler with per-IP rate limiting. The WebSocket
// endpoint is not wrapped: a long-lived connection is one request.
func (g *Gateway) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.limiter.Allow(clientIP(r)) {
			g.writeError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// clientIP extracts the client address from the request, ignoring the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
