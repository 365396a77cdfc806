package server

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces per-client and global request rate limits using
// token buckets (golang.org/x/time/rate). Clients are keyed by remote IP,
// which the RealIP middleware resolves before this runs.
type RateLimiter struct {
	mu        sync.Mutex
	global    *rate.Limiter
	clients   map[string]*rate.Limiter
	perClient rate.Limit
	burst     int
}

// NewRateLimiter creates a limiter allowing perClientRPM requests/minute
// per client and globalRPM total. Either value below 1 gets a burst of 1.
func NewRateLimiter(globalRPM, perClientRPM int) *RateLimiter {
	globalBurst := globalRPM
	if globalBurst < 1 {
		globalBurst = 1
	}
	clientBurst := perClientRPM
	if clientBurst < 1 {
		clientBurst = 1
	}
	return &RateLimiter{
		global:    rate.NewLimiter(rate.Limit(float64(globalRPM)/60.0), globalBurst),
		clients:   make(map[string]*rate.Limiter),
		perClient: rate.Limit(float64(perClientRPM) / 60.0),
		burst:     clientBurst,
	}
}

// Allow reports whether a request from the given client is admitted.
func (rl *RateLimiter) Allow(client string) bool {
	if !rl.global.Allow() {
		return false
	}
	rl.mu.Lock()
	limiter, ok := rl.clients[client]
	if !ok {
		limiter = rate.NewLimiter(rl.perClient, rl.burst)
		rl.clients[client] = limiter
	}
	rl.mu.Unlock()
	return limiter.Allow()
}

// RateLimitMiddleware rejects requests above the limit with 429 and a
// Retry-After header. A nil limiter disables rate limiting.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := r.RemoteAddr
			if host, _, err := net.SplitHostPort(client); err == nil {
				client = host
			}
			if !rl.Allow(client) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
