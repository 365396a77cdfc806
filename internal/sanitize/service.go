package sanitize

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	veilotel "github.com/veil-io/veil/internal/otel"
)

var tracer = veilotel.Tracer("github.com/veil-io/veil/internal/sanitize")

// ErrRecognition wraps a recognition engine failure. It is request-scoped:
// the transport maps it to a server error without leaking engine internals,
// and the process keeps serving other requests.
var ErrRecognition = errors.New("recognition engine failure")

// Recognizer is the detection capability consumed by the Service. The
// shipped implementation is engine.Scanner; tests substitute fakes.
type Recognizer interface {
	Detect(ctx context.Context, text, language string, types []string) ([]Detection, error)
	SupportedEntities() []string
}

// Result is the outcome of a Sanitize call. Created fresh per request and
// discarded after the response is sent.
type Result struct {
	OriginalText  string   `json:"original_text"`
	SanitizedText string   `json:"sanitized_text"`
	EntitiesFound []Entity `json:"entities_found"`
}

// Service composes entity selection, detection, normalization, and
// redaction. Immutable after construction: the engine handle and the
// placeholder table are shared read-only across concurrent requests.
type Service struct {
	engine       Recognizer
	placeholders *PlaceholderTable
}

// NewService builds the orchestration service around a recognition engine.
// A nil placeholder table gets the defaults.
func NewService(engine Recognizer, placeholders *PlaceholderTable) *Service {
	if placeholders == nil {
		placeholders = NewPlaceholderTable()
	}
	return &Service{engine: engine, placeholders: placeholders}
}

// Analyze detects PII in text without rewriting it. The requested types
// list may be empty, in which case the default catalog is searched. Engine
// failures wrap ErrRecognition.
func (s *Service) Analyze(ctx context.Context, text, language string, requestedTypes []string) ([]Entity, error) {
	ctx, span := tracer.Start(ctx, "sanitize.analyze")
	defer span.End()

	types := Select(requestedTypes)
	detections, err := s.engine.Detect(ctx, text, language, types)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	entities := Normalize(text, detections)
	span.SetAttributes(attribute.Int("sanitize.entity_count", len(entities)))
	log.Debug().Int("entities", len(entities)).Str("language", language).Msg("analyzed text")
	return entities, nil
}

// Sanitize detects PII and returns the text with each detected span
// replaced by its placeholder. When nothing is detected the original text
// is returned byte-for-byte, with an empty (non-nil) entity list — a clean
// input undergoes no transformation at all.
func (s *Service) Sanitize(ctx context.Context, text, language string, requestedTypes []string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "sanitize.sanitize")
	defer span.End()

	entities, err := s.Analyze(ctx, text, language, requestedTypes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OriginalText:  text,
		SanitizedText: text,
		EntitiesFound: entities,
	}
	if len(entities) == 0 {
		span.SetAttributes(attribute.Bool("sanitize.redacted", false))
		return result, nil
	}

	result.SanitizedText = Redact(text, entities, s.placeholders)
	span.SetAttributes(
		attribute.Bool("sanitize.redacted", true),
		attribute.Int("sanitize.entity_count", len(entities)),
	)
	log.Debug().Int("entities", len(entities)).Msg("sanitized text")
	return result, nil
}

// SupportedEntities returns the entity types the engine can detect.
func (s *Service) SupportedEntities() []string {
	return s.engine.SupportedEntities()
}

// Placeholders exposes the redaction policy table (read-only).
func (s *Service) Placeholders() *PlaceholderTable {
	return s.placeholders
}
