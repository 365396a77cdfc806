// Package sanitize implements the detection-to-redaction core: it resolves
// the entity types to search for, normalizes recognition engine output into
// canonical entity records, and rewrites text by substituting detected spans
// with type-specific placeholders.
package sanitize

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"
)

// ErrMalformedDetection marks a detection whose offsets are inconsistent
// with the analyzed text. Such detections are dropped with a warning rather
// than failing the request, since they originate from an external engine.
var ErrMalformedDetection = errors.New("malformed detection")

// Detection is a raw recognition engine result before normalization.
type Detection struct {
	EntityType string
	Start      int
	End        int
	Score      float64
}

// Entity is the canonical record for a detected PII span. Immutable once
// produced; Text always equals the analyzed text sliced at [Start:End).
type Entity struct {
	Type  string  `json:"type"`
	Text  string  `json:"text"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// Normalize converts raw engine detections into canonical entity records,
// slicing the matched text from the input and rounding scores to two
// decimal places. Detections with offsets outside [0, len(text)] or with
// start >= end are dropped with a logged warning; order is otherwise
// preserved from the engine. No overlap merging happens here — the engine
// owns its internal overlap resolution and the redactor owns the rest.
func Normalize(text string, detections []Detection) []Entity {
	entities := make([]Entity, 0, len(detections))
	for _, d := range detections {
		if err := validateDetection(text, d); err != nil {
			log.Warn().
				Str("entity_type", d.EntityType).
				Int("start", d.Start).
				Int("end", d.End).
				Int("text_len", len(text)).
				Msg("dropping malformed detection")
			continue
		}
		entities = append(entities, Entity{
			Type:  d.EntityType,
			Text:  text[d.Start:d.End],
			Start: d.Start,
			End:   d.End,
			Score: roundScore(d.Score),
		})
	}
	return entities
}

func validateDetection(text string, d Detection) error {
	if d.Start < 0 || d.End > len(text) || d.Start >= d.End {
		return ErrMalformedDetection
	}
	return nil
}

// roundScore rounds to two decimal places, matching the wire contract.
func roundScore(s float64) float64 {
	return math.Round(s*100) / 100
}
