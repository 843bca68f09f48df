package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func validEntry() Entry {
	return Entry{
		SourceID:    "iv-1",
		SourceLabel: "interviews/iv-1",
		Candidate: CandidateInsight{
			Category:        "grief_processing",
			Title:           "Grief comes in waves",
			Insight:         "Grief is not linear; it surges and recedes without schedule.",
			ConfidenceLevel: "high",
		},
	}
}

func TestImportOne_SetsDerivedFields(t *testing.T) {
	st := newTestStore(t)
	im := NewImporter(st)

	rec, err := im.ImportOne(context.Background(), validEntry())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.StatusPending, rec.Status)
	assert.Equal(t, model.DomainPain, rec.Domain)
	assert.Equal(t, model.VulnerabilitySurface, rec.VulnerabilityLevel)
	assert.Equal(t, 0.9, rec.Confidence)
	assert.Equal(t, ContentHash(rec.Title, rec.Body), rec.ContentHash)
	assert.False(t, rec.CreatedAt.IsZero())

	stored, err := st.GetInsight(context.Background(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.ContentHash, stored.ContentHash)
}

func TestImportBatch_PartialSuccess(t *testing.T) {
	st := newTestStore(t)
	im := NewImporter(st)

	bad := validEntry()
	bad.Candidate.Category = "astrology"

	missingTitle := validEntry()
	missingTitle.Candidate.Title = "   "

	result, err := im.ImportBatch(context.Background(), []Entry{validEntry(), bad, missingTitle})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "item 1")
	assert.Contains(t, result.Errors[0], "unknown category")
	assert.Contains(t, result.Errors[1], "item 2")
	assert.Len(t, result.IDs, 1)
}

func TestImportBatch_UnknownConfidenceRejected(t *testing.T) {
	st := newTestStore(t)
	im := NewImporter(st)

	e := validEntry()
	e.Candidate.ConfidenceLevel = "certain"

	result, err := im.ImportBatch(context.Background(), []Entry{e})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Errors[0], "unknown confidence level")
}

func TestImportOne_UnknownVulnerabilityRejected(t *testing.T) {
	st := newTestStore(t)
	im := NewImporter(st)

	e := validEntry()
	e.Candidate.VulnerabilityLevel = "extreme"

	_, err := im.ImportOne(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vulnerability level")
}

func TestImportOne_DeepVulnerabilityKept(t *testing.T) {
	st := newTestStore(t)
	im := NewImporter(st)

	e := validEntry()
	e.Candidate.VulnerabilityLevel = "deep"

	rec, err := im.ImportOne(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, model.VulnerabilityDeep, rec.VulnerabilityLevel)
}
