package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEmptyEntityListIsIdentity(t *testing.T) {
	table := NewPlaceholderTable()
	text := "nothing sensitive here"
	assert.Equal(t, text, Redact(text, nil, table))
	assert.Equal(t, text, Redact(text, []Entity{}, table))
}

func TestRedactSingleEntity(t *testing.T) {
	table := NewPlaceholderTable()
	text := "email john@example.com please"
	entities := []Entity{
		{Type: "EMAIL_ADDRESS", Text: "john@example.com", Start: 6, End: 22, Score: 0.95},
	}
	assert.Equal(t, "email <EMAIL> please", Redact(text, entities, table))
}

func TestRedactExample(t *testing.T) {
	table := NewPlaceholderTable()
	text := "John Doe, email john@example.com"
	entities := []Entity{
		{Type: "PERSON", Text: "John Doe", Start: 0, End: 8, Score: 0.85},
		{Type: "EMAIL_ADDRESS", Text: "john@example.com", Start: 16, End: 32, Score: 0.95},
	}
	assert.Equal(t, "<PERSON>, email <EMAIL>", Redact(text, entities, table))
}

func TestRedactUnsortedInput(t *testing.T) {
	table := NewPlaceholderTable()
	text := "John Doe, email john@example.com"
	entities := []Entity{
		{Type: "EMAIL_ADDRESS", Text: "john@example.com", Start: 16, End: 32, Score: 0.95},
		{Type: "PERSON", Text: "John Doe", Start: 0, End: 8, Score: 0.85},
	}
	assert.Equal(t, "<PERSON>, email <EMAIL>", Redact(text, entities, table),
		"redaction must sort by start offset, not trust engine order")
}

func TestRedactOverlappingSpansSkipsSecond(t *testing.T) {
	table := NewPlaceholderTable()
	text := "abcdefgh" // 8 chars
	entities := []Entity{
		{Type: "FIRST", Text: "abcde", Start: 0, End: 5, Score: 0.9},
		{Type: "SECOND", Text: "defgh", Start: 3, End: 8, Score: 0.9},
	}
	got := Redact(text, entities, table)
	assert.Equal(t, DefaultPlaceholder+"fgh", got,
		"only the first overlapping span is substituted; the second is skipped")
}

func TestRedactAdjacentSpansBothApplied(t *testing.T) {
	table := NewPlaceholderTable()
	text := "abcdefgh"
	entities := []Entity{
		{Type: "A", Text: "abcd", Start: 0, End: 4, Score: 0.9},
		{Type: "B", Text: "efgh", Start: 4, End: 8, Score: 0.9},
	}
	// End == next Start is not an overlap.
	assert.Equal(t, DefaultPlaceholder+DefaultPlaceholder, Redact(text, entities, table))
}

func TestRedactIsDeterministic(t *testing.T) {
	table := NewPlaceholderTable()
	text := "call 555-123-4567 or mail a@b.io now"
	entities := []Entity{
		{Type: "PHONE_NUMBER", Text: "555-123-4567", Start: 5, End: 17, Score: 0.7},
		{Type: "EMAIL_ADDRESS", Text: "a@b.io", Start: 26, End: 32, Score: 0.95},
	}
	first := Redact(text, entities, table)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Redact(text, entities, table))
	}
	assert.Equal(t, "call <PHONE> or mail <EMAIL> now", first)
}
