package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-io/veil/internal/sanitize"
)

func detectedTypes(detections []sanitize.Detection) []string {
	var types []string
	for _, d := range detections {
		types = append(types, d.EntityType)
	}
	return types
}

func TestDetect(t *testing.T) {
	scanner := MustNewScanner()
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		wantTypes []string
	}{
		{
			name: "no PII",
			text: "Hello world, this is a test",
		},
		{
			name:      "email address",
			text:      "Contact me at user@example.com",
			wantTypes: []string{"EMAIL_ADDRESS"},
		},
		{
			name:      "US SSN",
			text:      "SSN: 123-45-6789",
			wantTypes: []string{"US_SSN"},
		},
		{
			name:      "credit card passes Luhn",
			text:      "Card: 4111111111111111",
			wantTypes: []string{"CREDIT_CARD"},
		},
		{
			name: "credit card fails Luhn",
			text: "Card: 4111111111111112",
		},
		{
			name:      "IPv4 address",
			text:      "Server at 192.168.1.100",
			wantTypes: []string{"IP_ADDRESS"},
		},
		{
			name:      "URL",
			text:      "See https://example.com/records for details",
			wantTypes: []string{"URL"},
		},
		{
			name:      "US phone with context",
			text:      "Call me at 555-123-4567",
			wantTypes: []string{"PHONE_NUMBER"},
		},
		{
			name:      "titled person name",
			text:      "Dr. Jane Smith attended",
			wantTypes: []string{"PERSON"},
		},
		{
			name:      "state name from deny list",
			text:      "Patient lives in Texas",
			wantTypes: []string{"LOCATION"},
		},
		{
			name:      "date of birth",
			text:      "DOB: 04/12/1985",
			wantTypes: []string{"DATE_TIME"},
		},
		{
			name: "driver license number without context stays below threshold",
			text: "Reference D1234567 on file",
		},
		{
			name:      "driver license number with context",
			text:      "Driver license number D1234567",
			wantTypes: []string{"US_DRIVER_LICENSE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections, err := scanner.Detect(ctx, tt.text, "en", sanitize.DefaultEntities)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTypes, detectedTypes(detections))
			for _, d := range detections {
				assert.GreaterOrEqual(t, d.Score, DefaultMinScore)
				assert.LessOrEqual(t, d.Score, 1.0)
				assert.True(t, 0 <= d.Start && d.Start < d.End && d.End <= len(tt.text))
			}
		})
	}
}

func TestDetectHonorsRequestedTypes(t *testing.T) {
	scanner := MustNewScanner()
	text := "John Doe, email john@example.com"

	detections, err := scanner.Detect(context.Background(), text, "en", []string{"PERSON"})
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "PERSON", detections[0].EntityType)
	assert.Equal(t, "John Doe", text[detections[0].Start:detections[0].End])
}

func TestDetectUnknownTypeYieldsNothing(t *testing.T) {
	scanner := MustNewScanner()
	detections, err := scanner.Detect(context.Background(), "john@example.com", "en", []string{"NOT_A_TYPE"})
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestDetectUnknownLanguageYieldsNothing(t *testing.T) {
	scanner := MustNewScanner()
	detections, err := scanner.Detect(context.Background(), "john@example.com", "xx", sanitize.DefaultEntities)
	require.NoError(t, err)
	assert.Empty(t, detections, "recognizers are language-scoped; unknown language matches nothing")
}

func TestDetectCollapsesContainedSpansOfSameType(t *testing.T) {
	scanner := MustNewScanner()
	text := "Dr. Jane Smith attended"

	detections, err := scanner.Detect(context.Background(), text, "en", []string{"PERSON"})
	require.NoError(t, err)
	require.Len(t, detections, 1, "titled name and bare name overlap; only the wider span survives")
	assert.Equal(t, "Dr. Jane Smith", text[detections[0].Start:detections[0].End])
}

func TestDetectOrderedByStart(t *testing.T) {
	scanner := MustNewScanner()
	text := "SSN 123-45-6789 and mail user@example.com and 10.0.0.1"

	detections, err := scanner.Detect(context.Background(), text, "en", sanitize.DefaultEntities)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(detections), 3)
	for i := 1; i < len(detections); i++ {
		assert.LessOrEqual(t, detections[i-1].Start, detections[i].Start)
	}
}

func TestContextBoost(t *testing.T) {
	scanner := MustNewScanner()
	ctx := context.Background()

	// 0.6 base without context words nearby.
	bare, err := scanner.Detect(ctx, "node 10.1.2.3 responded", "en", []string{"IP_ADDRESS"})
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.InDelta(t, 0.6, bare[0].Score, 0.001)

	// Boosted by the "server" context word, capped at 1.0.
	boosted, err := scanner.Detect(ctx, "server 10.1.2.3 responded", "en", []string{"IP_ADDRESS"})
	require.NoError(t, err)
	require.Len(t, boosted, 1)
	assert.InDelta(t, 0.95, boosted[0].Score, 0.001)
}

func TestWithMinScoreFiltersWeakMatches(t *testing.T) {
	strict := MustNewScanner(WithMinScore(0.99))
	detections, err := strict.Detect(context.Background(), "node 10.1.2.3 responded", "en", []string{"IP_ADDRESS"})
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestSupportedEntities(t *testing.T) {
	scanner := MustNewScanner()
	entities := scanner.SupportedEntities()
	for _, want := range sanitize.DefaultEntities {
		assert.Contains(t, entities, want)
	}
}

func TestPlaceholdersDoNotRetrigger(t *testing.T) {
	scanner := MustNewScanner()
	svc := sanitize.NewService(scanner, nil)
	ctx := context.Background()

	text := "John Doe, email john@example.com"
	result, err := svc.Sanitize(ctx, text, "en", nil)
	require.NoError(t, err)
	assert.Equal(t, "<PERSON>, email <EMAIL>", result.SanitizedText)

	// A second pass over sanitized output must not re-detect the
	// placeholder tokens as the original entity types.
	second, err := svc.Analyze(ctx, result.SanitizedText, "en", nil)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, luhnValid("4111111111111111"))
	assert.True(t, luhnValid("5500005555555559"))
	assert.False(t, luhnValid("4111111111111112"))
	assert.False(t, luhnValid("1"))
	assert.False(t, luhnValid("41x1111111111111"))
}
