package engine

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veil-io/veil/patterns"
)

// RecognizerFile is the top-level YAML structure for a recognizer config file.
// Mirrors Presidio's recognizer registry YAML format.
type RecognizerFile struct {
	Recognizers []RecognizerConfig `yaml:"recognizers"`
}

// RecognizerConfig mirrors Presidio's YAML recognizer schema with Veil
// extensions (validate_luhn).
type RecognizerConfig struct {
	Name               string            `yaml:"name" json:"name"`
	SupportedEntity    string            `yaml:"supported_entity" json:"supported_entity"`
	Enabled            *bool             `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Patterns           []PatternConfig   `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	SupportedLanguages []LanguageContext `yaml:"supported_languages,omitempty" json:"supported_languages,omitempty"`
	DenyList           []string          `yaml:"deny_list,omitempty" json:"deny_list,omitempty"`
	DenyListScore      float64           `yaml:"deny_list_score,omitempty" json:"deny_list_score,omitempty"`
	ValidateLuhn       bool              `yaml:"validate_luhn,omitempty" json:"validate_luhn,omitempty"`
}

// PatternConfig is a single regex pattern within a recognizer.
type PatternConfig struct {
	Name  string  `yaml:"name" json:"name"`
	Regex string  `yaml:"regex" json:"regex"`
	Score float64 `yaml:"score" json:"score"`
}

// LanguageContext holds context words for a specific language.
type LanguageContext struct {
	Language string   `yaml:"language" json:"language"`
	Context  []string `yaml:"context,omitempty" json:"context,omitempty"`
}

// isEnabled returns true if the recognizer is enabled (defaults to true when nil).
func (r *RecognizerConfig) isEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// ParseRecognizerFile parses recognizer YAML bytes into a RecognizerFile.
func ParseRecognizerFile(data []byte) (*RecognizerFile, error) {
	var rf RecognizerFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recognizer YAML: %w", err)
	}
	return &rf, nil
}

// LoadRecognizerFile reads and parses a recognizer YAML file from disk.
// Returns nil (not an error) if the file does not exist, so callers can
// treat a missing override file as a no-op.
func LoadRecognizerFile(path string) (*RecognizerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading recognizer file %s: %w", path, err)
	}
	return ParseRecognizerFile(data)
}

// DefaultRecognizers returns the built-in PII recognizers parsed from the
// embedded pii_default.yaml file. This is the first layer in the merge chain.
func DefaultRecognizers() ([]RecognizerConfig, error) {
	rf, err := ParseRecognizerFile(patterns.PIIDefaultYAML())
	if err != nil {
		return nil, fmt.Errorf("parsing embedded PII patterns: %w", err)
	}
	return rf.Recognizers, nil
}

// MergeRecognizers performs a layered merge: embedded defaults, then
// operator overrides. Later layers override earlier ones by matching on the
// recognizer Name field. New recognizers are appended.
func MergeRecognizers(layers ...[]RecognizerConfig) []RecognizerConfig {
	index := make(map[string]int)
	var merged []RecognizerConfig

	for _, layer := range layers {
		for _, rc := range layer {
			if idx, exists := index[rc.Name]; exists {
				merged[idx] = rc
			} else {
				index[rc.Name] = len(merged)
				merged = append(merged, rc)
			}
		}
	}

	return merged
}

// FilterByEntities applies enabled/disabled entity filters to a recognizer list.
// If enabledEntities is non-empty, only recognizers with matching
// supported_entity are kept (whitelist). Then any recognizer whose entity is
// in disabledEntities is removed (blacklist).
func FilterByEntities(recognizers []RecognizerConfig, enabledEntities, disabledEntities []string) []RecognizerConfig {
	result := recognizers

	if len(enabledEntities) > 0 {
		allowed := make(map[string]bool, len(enabledEntities))
		for _, e := range enabledEntities {
			allowed[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if allowed[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	if len(disabledEntities) > 0 {
		blocked := make(map[string]bool, len(disabledEntities))
		for _, e := range disabledEntities {
			blocked[e] = true
		}
		var filtered []RecognizerConfig
		for _, r := range result {
			if !blocked[r.SupportedEntity] {
				filtered = append(filtered, r)
			}
		}
		result = filtered
	}

	return result
}

// CompilePatterns converts a list of recognizer configs into the compiled
// []Pattern slice used by the Scanner at runtime. Disabled recognizers are
// skipped. Each regex pattern produces one Pattern entry; a deny_list
// produces one additional word-boundary alternation pattern.
func CompilePatterns(recognizers []RecognizerConfig) ([]Pattern, error) {
	var compiled []Pattern

	for _, rec := range recognizers {
		if !rec.isEnabled() {
			continue
		}
		for _, p := range rec.Patterns {
			re, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("compiling pattern %q in recognizer %q: %w", p.Name, rec.Name, err)
			}
			compiled = append(compiled, Pattern{
				Name:         rec.Name,
				Entity:       rec.SupportedEntity,
				Regex:        re,
				Score:        p.Score,
				Languages:    recognizerLanguages(rec),
				ContextWords: contextWordsByLanguage(rec),
				ValidateLuhn: rec.ValidateLuhn,
			})
		}
		if len(rec.DenyList) > 0 {
			re, err := compileDenyList(rec.DenyList)
			if err != nil {
				return nil, fmt.Errorf("compiling deny list in recognizer %q: %w", rec.Name, err)
			}
			score := rec.DenyListScore
			if score == 0 {
				score = 1.0
			}
			compiled = append(compiled, Pattern{
				Name:         rec.Name,
				Entity:       rec.SupportedEntity,
				Regex:        re,
				Score:        score,
				Languages:    recognizerLanguages(rec),
				ContextWords: contextWordsByLanguage(rec),
			})
		}
	}

	return compiled, nil
}

// compileDenyList builds a single word-boundary alternation regex from a
// list of literal terms, longest first so longer terms win the match.
func compileDenyList(terms []string) (*regexp.Regexp, error) {
	sorted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			sorted = append(sorted, t)
		}
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("deny list is empty")
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func recognizerLanguages(rec RecognizerConfig) []string {
	langs := make([]string, 0, len(rec.SupportedLanguages))
	for _, lc := range rec.SupportedLanguages {
		if lc.Language != "" {
			langs = append(langs, lc.Language)
		}
	}
	return langs
}

func contextWordsByLanguage(rec RecognizerConfig) map[string][]string {
	if len(rec.SupportedLanguages) == 0 {
		return nil
	}
	m := make(map[string][]string, len(rec.SupportedLanguages))
	for _, lc := range rec.SupportedLanguages {
		if len(lc.Context) > 0 {
			m[lc.Language] = lc.Context
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
