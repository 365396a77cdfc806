// Package engine implements the recognition engine behind the sanitize
// core: a regex-and-validator PII scanner built from Presidio-compatible
// recognizer definitions.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	veilotel "github.com/veil-io/veil/internal/otel"
	"github.com/veil-io/veil/internal/sanitize"
)

var tracer = veilotel.Tracer("github.com/veil-io/veil/internal/engine")

const (
	// DefaultMinScore is the Presidio-compatible minimum confidence
	// threshold. Matches below this score are discarded unless boosted by
	// context words.
	DefaultMinScore = 0.5

	// ContextSimilarityFactor is the score boost applied when context words
	// are found near a match. Matches Presidio's default
	// context_similarity_factor.
	ContextSimilarityFactor = 0.35

	// ContextWindowChars is the number of characters to search before and
	// after a match when looking for context words.
	ContextWindowChars = 100
)

// Pattern is a compiled, ready-to-use recognizer pattern.
type Pattern struct {
	Name         string
	Entity       string
	Regex        *regexp.Regexp
	Score        float64
	Languages    []string            // empty = all languages
	ContextWords map[string][]string // keyed by language
	ValidateLuhn bool
}

// Scanner detects PII in text using configurable regex patterns. Safe for
// concurrent use; compiled patterns are read-only after construction.
type Scanner struct {
	patterns []Pattern
	minScore float64
}

// Option configures a Scanner via the functional options pattern.
type Option func(*scannerConfig)

type scannerConfig struct {
	patternFile      string
	enabledEntities  []string
	disabledEntities []string
	extraRecognizers []RecognizerConfig
	minScore         float64
}

// WithMinScore overrides the default minimum confidence threshold.
func WithMinScore(score float64) Option {
	return func(c *scannerConfig) { c.minScore = score }
}

// WithPatternFile loads additional recognizers from an operator-provided
// recognizers YAML file. If the file does not exist, it is silently skipped.
func WithPatternFile(path string) Option {
	return func(c *scannerConfig) { c.patternFile = path }
}

// WithEnabledEntities sets a whitelist of entity types. When non-empty, only
// recognizers with a matching supported_entity will be active.
func WithEnabledEntities(entities []string) Option {
	return func(c *scannerConfig) { c.enabledEntities = entities }
}

// WithDisabledEntities sets a blacklist of entity types to exclude.
func WithDisabledEntities(entities []string) Option {
	return func(c *scannerConfig) { c.disabledEntities = entities }
}

// WithRecognizers adds extra recognizer definitions on top of the embedded
// defaults and any pattern file.
func WithRecognizers(recognizers []RecognizerConfig) Option {
	return func(c *scannerConfig) { c.extraRecognizers = recognizers }
}

// NewScanner creates a PII scanner. Without options it uses the embedded
// healthcare defaults. Options layer operator overrides on top.
func NewScanner(opts ...Option) (*Scanner, error) {
	var cfg scannerConfig
	for _, o := range opts {
		o(&cfg)
	}

	defaults, err := DefaultRecognizers()
	if err != nil {
		return nil, fmt.Errorf("loading default recognizers: %w", err)
	}

	var fileRecs []RecognizerConfig
	if cfg.patternFile != "" {
		rf, err := LoadRecognizerFile(cfg.patternFile)
		if err != nil {
			return nil, fmt.Errorf("loading pattern file: %w", err)
		}
		if rf != nil {
			fileRecs = rf.Recognizers
		}
	}

	merged := MergeRecognizers(defaults, fileRecs, cfg.extraRecognizers)
	merged = FilterByEntities(merged, cfg.enabledEntities, cfg.disabledEntities)

	compiled, err := CompilePatterns(merged)
	if err != nil {
		return nil, fmt.Errorf("compiling patterns: %w", err)
	}

	minScore := DefaultMinScore
	if cfg.minScore > 0 {
		minScore = cfg.minScore
	}

	return &Scanner{patterns: compiled, minScore: minScore}, nil
}

// MustNewScanner is like NewScanner but panics on error. Useful for
// zero-config startup where the embedded defaults are expected to always
// compile.
func MustNewScanner(opts ...Option) *Scanner {
	s, err := NewScanner(opts...)
	if err != nil {
		panic(fmt.Sprintf("engine.NewScanner: %v", err))
	}
	return s
}

// Detect scans text for the given entity types and returns raw detections
// ordered by start offset. An empty types list matches nothing; the caller
// (sanitize.Service) resolves the effective type set before calling.
// Each match goes through hard validation gates (Luhn for card numbers)
// and then Presidio-style score-based context filtering before being
// accepted. Spans fully contained in an accepted span of the same entity
// type are collapsed; identical spans keep the highest score.
func (s *Scanner) Detect(ctx context.Context, text, language string, types []string) ([]sanitize.Detection, error) {
	_, span := tracer.Start(ctx, "engine.detect")
	defer span.End()

	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var found []sanitize.Detection
	for _, pattern := range s.patterns {
		if !wanted[pattern.Entity] {
			continue
		}
		if !pattern.matchesLanguage(language) {
			continue
		}
		matches := pattern.Regex.FindAllStringIndex(text, -1)
		for _, m := range matches {
			value := text[m[0]:m[1]]

			if pattern.ValidateLuhn && !luhnValid(stripNonDigits(value)) {
				continue
			}

			score := enhanceScoreWithContext(text, m[0], pattern.Score, pattern.ContextWords[language])
			if score < s.minScore {
				continue
			}
			if score > 1.0 {
				score = 1.0
			}

			found = append(found, sanitize.Detection{
				EntityType: pattern.Entity,
				Start:      m[0],
				End:        m[1],
				Score:      score,
			})
		}
	}

	found = resolveOverlaps(found)

	span.SetAttributes(
		attribute.Int("engine.detection_count", len(found)),
		attribute.String("engine.language", language),
	)
	return found, nil
}

// SupportedEntities returns the distinct entity types of the active
// recognizers, in pattern order.
func (s *Scanner) SupportedEntities() []string {
	seen := make(map[string]bool, len(s.patterns))
	var entities []string
	for _, p := range s.patterns {
		if !seen[p.Entity] {
			seen[p.Entity] = true
			entities = append(entities, p.Entity)
		}
	}
	return entities
}

// matchesLanguage reports whether the pattern is active for the given
// language. Patterns without declared languages run for all languages.
func (p *Pattern) matchesLanguage(language string) bool {
	if len(p.Languages) == 0 {
		return true
	}
	for _, l := range p.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// resolveOverlaps sorts detections by start offset and collapses duplicates:
// identical spans keep the highest score, and a span fully contained in a
// kept span of the same entity type is dropped. Overlaps across different
// entity types are left for the redaction layer to resolve.
func resolveOverlaps(detections []sanitize.Detection) []sanitize.Detection {
	if len(detections) < 2 {
		return detections
	}
	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Start != detections[j].Start {
			return detections[i].Start < detections[j].Start
		}
		if detections[i].End != detections[j].End {
			return detections[i].End > detections[j].End
		}
		return detections[i].Score > detections[j].Score
	})

	kept := detections[:0]
	for _, d := range detections {
		if len(kept) > 0 {
			last := kept[len(kept)-1]
			if d.Start == last.Start && d.End == last.End {
				continue
			}
			if d.EntityType == last.EntityType && d.Start >= last.Start && d.End <= last.End {
				continue
			}
		}
		kept = append(kept, d)
	}
	return kept
}

// luhnValid checks whether a digit string passes the Luhn algorithm
// (ISO/IEC 7812).
func luhnValid(number string) bool {
	n := len(number)
	if n < 2 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// enhanceScoreWithContext boosts a match's base score if context words are
// found within +/- ContextWindowChars characters of the match position.
// Mirrors Presidio's LemmaContextAwareEnhancer with a fixed
// context_similarity_factor.
func enhanceScoreWithContext(text string, position int, baseScore float64, contextWords []string) float64 {
	if len(contextWords) == 0 {
		return baseScore
	}
	start := position - ContextWindowChars
	if start < 0 {
		start = 0
	}
	end := position + ContextWindowChars
	if end > len(text) {
		end = len(text)
	}
	window := strings.ToLower(text[start:end])

	for _, cw := range contextWords {
		if strings.Contains(window, strings.ToLower(cw)) {
			return baseScore + ContextSimilarityFactor
		}
	}
	return baseScore
}

// stripNonDigits removes all non-digit characters from s.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
