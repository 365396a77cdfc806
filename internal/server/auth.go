// Package server provides the HTTP API server, middleware, and handlers
// for Veil.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware returns a middleware that validates the X-API-Token shared
// secret. An empty configured token disables authentication entirely (open
// mode — serve logs a warning at startup so this never happens silently in
// production).
func AuthMiddleware(apiToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiToken == "" {
				next.ServeHTTP(w, r)
				return
			}
			token := r.Header.Get("X-API-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits a structured log line per request, tagging it with
// the inbound X-Request-ID or a generated one.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", reqID).
				Int("status", wrapped.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// CORSMiddleware returns a middleware that sets CORS headers.
// allowedOrigins can be ["*"] for any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
			break
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						break
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-API-Token, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "300")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// writeError writes a JSON error response. Shared by middleware and
// handlers so every error body has the same shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
