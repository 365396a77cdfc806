package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veil-io/veil/internal/sanitize"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Contains(t, out, "veil")
	assert.Contains(t, out, resolvedVersion())
}

func TestScanRedact(t *testing.T) {
	out := execute(t, "scan", "--redact=true", "John Doe, email john@example.com")
	assert.Equal(t, "<PERSON>, email <EMAIL>\n", out)
}

func TestScanAnalyze(t *testing.T) {
	out := execute(t, "scan", "--redact=false", "Card: 4111111111111111")

	var entities []sanitize.Entity
	require.NoError(t, json.Unmarshal([]byte(out), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "CREDIT_CARD", entities[0].Type)
	assert.Equal(t, "4111111111111111", entities[0].Text)
}

func TestScanEntitiesFlag(t *testing.T) {
	out := execute(t, "scan", "--redact=false", "--entities=EMAIL_ADDRESS", "John Doe, email john@example.com")

	var entities []sanitize.Entity
	require.NoError(t, json.Unmarshal([]byte(out), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "EMAIL_ADDRESS", entities[0].Type)
}

func TestScanRejectsEmptyText(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"scan", "   "})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text must not be empty")
}
