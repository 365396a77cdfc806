package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veil-io/veil/internal/otel"
	"github.com/veil-io/veil/internal/sanitize"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// textRequest is the shared body for /analyze and /sanitize.
type textRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities"`
}

type analyzeResponse struct {
	Text     string            `json:"text"`
	Entities []sanitize.Entity `json:"entities"`
}

// decodeTextRequest parses and validates the request body. Empty text is a
// client error rejected before the core is invoked.
func (s *Server) decodeTextRequest(w http.ResponseWriter, r *http.Request) (*textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return nil, false
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return nil, false
	}
	if req.Language == "" {
		req.Language = s.defaultLanguage
	}
	return &req, true
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decodeTextRequest(w, r)
	if !ok {
		s.metrics.ObserveRequest("/analyze", strconv.Itoa(http.StatusBadRequest), time.Since(start).Seconds())
		return
	}

	entities, err := s.service.Analyze(r.Context(), req.Text, req.Language, req.Entities)
	if err != nil {
		s.recognitionError(w, r, err, "/analyze")
		s.metrics.ObserveRequest("/analyze", strconv.Itoa(http.StatusInternalServerError), time.Since(start).Seconds())
		return
	}
	for _, e := range entities {
		s.metrics.ObserveEntity(e.Type)
	}

	s.metrics.ObserveRequest("/analyze", strconv.Itoa(http.StatusOK), time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, analyzeResponse{Text: req.Text, Entities: entities})
}

func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, ok := s.decodeTextRequest(w, r)
	if !ok {
		s.metrics.ObserveRequest("/sanitize", strconv.Itoa(http.StatusBadRequest), time.Since(start).Seconds())
		return
	}

	result, err := s.service.Sanitize(r.Context(), req.Text, req.Language, req.Entities)
	if err != nil {
		s.recognitionError(w, r, err, "/sanitize")
		s.metrics.ObserveRequest("/sanitize", strconv.Itoa(http.StatusInternalServerError), time.Since(start).Seconds())
		return
	}
	for _, e := range result.EntitiesFound {
		s.metrics.ObserveEntity(e.Type)
		s.metrics.ObserveRedaction(e.Type)
	}

	s.metrics.ObserveRequest("/sanitize", strconv.Itoa(http.StatusOK), time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"entities": s.service.SupportedEntities(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "Veil PII Sanitization Service",
		"version": s.version,
		"status":  "running",
	})
}

// recognitionError maps an engine failure to a generic 500 without leaking
// engine internals. The failure is scoped to this request only.
func (s *Server) recognitionError(w http.ResponseWriter, r *http.Request, err error, route string) {
	log.Error().Err(err).Str("route", route).Func(otel.LogTraceFields(r.Context())).Msg("recognition_error")
	if errors.Is(err, sanitize.ErrRecognition) {
		writeError(w, http.StatusInternalServerError, "recognition_failed", "entity detection failed")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}
