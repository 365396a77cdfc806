package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veil-io/veil/internal/metrics"
	"github.com/veil-io/veil/internal/otel"
	"github.com/veil-io/veil/internal/sanitize"
)

const defaultTimeout = 30 * time.Second

// Server holds all dependencies for the HTTP API.
type Server struct {
	router          *chi.Mux
	service         *sanitize.Service
	apiToken        string
	defaultLanguage string
	version         string
	corsOrigins     []string
	metrics         *metrics.APIMetrics
	limiter         *RateLimiter
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics sets the Prometheus metrics sink (optional).
func WithMetrics(m *metrics.APIMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimiter sets the request rate limiter (optional).
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"]).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithVersion sets the version reported by /health and /.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer builds a Server around the sanitize service. apiToken empty
// means open mode; defaultLanguage fills requests that omit a language.
func NewServer(service *sanitize.Service, apiToken, defaultLanguage string, opts ...Option) *Server {
	s := &Server{
		router:          chi.NewRouter(),
		service:         service,
		apiToken:        apiToken,
		defaultLanguage: defaultLanguage,
		version:         "1.0.0",
		corsOrigins:     []string{"*"},
	}
	if s.defaultLanguage == "" {
		s.defaultLanguage = "en"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler. Health, service info, and
// metrics bypass authentication; everything else requires the shared
// secret when one is configured.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated API group
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiToken))
		r.Use(RateLimitMiddleware(s.limiter))
		r.Use(middleware.Timeout(defaultTimeout))

		r.Post("/analyze", s.handleAnalyze)
		r.Post("/sanitize", s.handleSanitize)
		r.Get("/entities", s.handleEntities)
	})

	return r
}
