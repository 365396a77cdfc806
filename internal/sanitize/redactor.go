package sanitize

import (
	"sort"
	"strings"
)

// Redact rewrites text by substituting each detected span with its
// placeholder. Entities are processed in ascending order of start offset;
// an entity whose start falls before the current write cursor overlaps a
// just-emitted replacement and is skipped, which keeps the output
// well-formed at the cost of silently dropping a subset of overlapping
// detections. Deterministic and side-effect-free; an empty entity list
// returns text unchanged.
func Redact(text string, entities []Entity, placeholders *PlaceholderTable) string {
	if len(entities) == 0 {
		return text
	}

	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, e := range sorted {
		if e.Start < cursor {
			continue
		}
		b.WriteString(text[cursor:e.Start])
		b.WriteString(placeholders.Placeholder(e.Type))
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return b.String()
}
