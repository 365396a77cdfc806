package sanitize

// DefaultPlaceholder replaces any entity type without an explicit entry.
const DefaultPlaceholder = "<REDACTED>"

// PlaceholderTable maps entity types to their literal replacement tokens.
// Read-only after construction; shared across all requests.
type PlaceholderTable struct {
	byType map[string]string
}

// NewPlaceholderTable builds the default placeholder mapping. Placeholder
// tokens deliberately avoid shapes the recognizers themselves match, so a
// sanitized text does not re-detect as PII.
func NewPlaceholderTable() *PlaceholderTable {
	return &PlaceholderTable{byType: map[string]string{
		"PERSON":            "<PERSON>",
		"EMAIL_ADDRESS":     "<EMAIL>",
		"PHONE_NUMBER":      "<PHONE>",
		"DATE_TIME":         "<DATE>",
		"LOCATION":          "<LOCATION>",
		"US_SSN":            "<SSN>",
		"CREDIT_CARD":       "<CREDIT_CARD>",
		"IP_ADDRESS":        "<IP_ADDRESS>",
		"URL":               "<URL>",
		"US_DRIVER_LICENSE": "<DRIVER_LICENSE>",
		"MEDICAL_LICENSE":   "<MEDICAL_LICENSE>",
	}}
}

// Placeholder returns the replacement token for an entity type, falling back
// to DefaultPlaceholder for unlisted types. Total function, never fails.
func (t *PlaceholderTable) Placeholder(entityType string) string {
	if p, ok := t.byType[entityType]; ok {
		return p
	}
	return DefaultPlaceholder
}
