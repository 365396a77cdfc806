package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(100, 1) // 1 rpm per client, burst 1

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"), "second request within the minute is rejected")
	assert.True(t, rl.Allow("10.0.0.2"), "a different client has its own bucket")
}

func TestRateLimiterGlobal(t *testing.T) {
	rl := NewRateLimiter(1, 100)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("b"), "global bucket applies across clients")
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(100, 1)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/entities", nil)
	req.RemoteAddr = "10.1.1.1:4321"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareNilLimiterIsNoop(t *testing.T) {
	handler := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
