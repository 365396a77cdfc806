package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderMapping(t *testing.T) {
	table := NewPlaceholderTable()

	tests := []struct {
		entityType string
		want       string
	}{
		{"PERSON", "<PERSON>"},
		{"EMAIL_ADDRESS", "<EMAIL>"},
		{"PHONE_NUMBER", "<PHONE>"},
		{"DATE_TIME", "<DATE>"},
		{"LOCATION", "<LOCATION>"},
		{"US_SSN", "<SSN>"},
		{"CREDIT_CARD", "<CREDIT_CARD>"},
		{"IP_ADDRESS", "<IP_ADDRESS>"},
		{"URL", "<URL>"},
		{"US_DRIVER_LICENSE", "<DRIVER_LICENSE>"},
		{"MEDICAL_LICENSE", "<MEDICAL_LICENSE>"},
		{"SOMETHING_ELSE", DefaultPlaceholder},
		{"", DefaultPlaceholder},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Placeholder(tt.entityType), "type %q", tt.entityType)
	}
}

func TestDefaultCatalogHasPlaceholders(t *testing.T) {
	table := NewPlaceholderTable()
	for _, entityType := range DefaultEntities {
		assert.NotEqual(t, DefaultPlaceholder, table.Placeholder(entityType),
			"catalog type %s should have an explicit placeholder", entityType)
	}
}
