package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/propverse/propverse-be/internal/http/respond"
)

// RateLimiter bounds requests per client within a fixed window. Counters are
// the only in-process shared mutable state in the server; updates for a key
// are atomic under the mutex.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	counts  map[string]int
	started time.Time
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per key per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		counts:  make(map[string]int),
		started: time.Now(),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.started) >= rl.window {
		rl.counts = make(map[string]int)
		rl.started = now
	}

	rl.counts[key]++
	return rl.counts[key] <= rl.max
}

// Limit wraps next, answering 429 when the client's window is exhausted.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			respond.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by remote IP, preferring the first
// X-Forwarded-For hop when present.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
