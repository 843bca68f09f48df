package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/model"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFamilies_EmptyPath(t *testing.T) {
	families, err := LoadFamilies("")
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestLoadFamilies_ExtendsHarmful(t *testing.T) {
	path := writeRules(t, `
harmful:
  - descriptor: crypto scams
    severity: high
    contains: ["guaranteed returns", "get rich quick"]
`)
	families, err := LoadFamilies(path)
	require.NoError(t, err)

	engine := NewEngine(families...)
	rec := model.InsightRecord{
		ID:    "r1",
		Title: "Money",
		Body:  "She was promised guaranteed returns and it made the financial anxiety far worse than it had been before.",
	}
	flags := engine.Evaluate(&rec)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagHarmful, flags[0].Category)
	assert.Equal(t, model.SeverityHigh, flags[0].Severity)
	assert.Contains(t, flags[0].Reason, "crypto scams")
}

func TestLoadFamilies_UnknownSeverity(t *testing.T) {
	path := writeRules(t, `
bias:
  - descriptor: something
    severity: fatal
    contains: ["x"]
`)
	_, err := LoadFamilies(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown severity")
}

func TestLoadFamilies_MissingPatterns(t *testing.T) {
	path := writeRules(t, `
low_quality:
  - descriptor: empty rule
    severity: low
`)
	_, err := LoadFamilies(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing descriptor or patterns")
}

func TestLoadFamilies_FileNotFound(t *testing.T) {
	_, err := LoadFamilies("/nonexistent/rules.yaml")
	require.Error(t, err)
}
