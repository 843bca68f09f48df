package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

func seedFlag(t *testing.T, st store.Store, id, insightID string, category model.FlagCategory, severity model.Severity) {
	t.Helper()
	f := model.FlaggedInsight{
		ID:         id,
		InsightID:  insightID,
		Reason:     "test flag",
		Category:   category,
		Confidence: 0.9,
		Severity:   severity,
		FlaggedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.AppendFlag(context.Background(), &f))
}

func TestDecide_Keep(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagLowQuality, model.SeverityLow)

	require.NoError(t, NewReviewer(st).Decide(ctx, "f1", model.DecisionKeep))

	flag, err := st.GetFlag(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionKeep, flag.Decision)

	rec, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.StatusApproved, rec.Status)
}

func TestDecide_Remove(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagHarmful, model.SeverityCritical)
	seedFlag(t, st, "f2", "a", model.FlagBias, model.SeverityHigh)

	require.NoError(t, NewReviewer(st).Decide(ctx, "f1", model.DecisionRemove))

	rec, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// The record's other flags go with it.
	flags, err := st.ListFlags(ctx, store.FlagFilter{InsightID: "a"})
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestDecide_Edit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagLowQuality, model.SeverityMedium)

	require.NoError(t, NewReviewer(st).Decide(ctx, "f1", model.DecisionEdit))

	rec, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.StatusNeedsEdit, rec.Status)
}

func TestDecide_UnknownDecision(t *testing.T) {
	st := newTestStore(t)
	err := NewReviewer(st).Decide(context.Background(), "f1", "defer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown decision")
}

func TestDecide_FlagNotFound(t *testing.T) {
	st := newTestStore(t)
	err := NewReviewer(st).Decide(context.Background(), "missing", model.DecisionKeep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag not found")
}

func TestBulkRemove_SkipsMissing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagHarmful, model.SeverityHigh)

	removed, err := NewReviewer(st).BulkRemove(ctx, []string{"f1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	rec, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRemoveByCategory(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "First insight", cleanBody, model.StatusApproved)
	seedInsight(t, st, "b", "Second insight", cleanBody+" More text here.", model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagBias, model.SeverityHigh)
	seedFlag(t, st, "f2", "b", model.FlagLowQuality, model.SeverityLow)

	removed, err := NewReviewer(st).RemoveByCategory(ctx, model.FlagBias)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	a, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, a)
	b, err := st.GetInsight(ctx, "b")
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestRemoveBySeverity_DedupesByInsight(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "First insight", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagHarmful, model.SeverityCritical)
	seedFlag(t, st, "f2", "a", model.FlagBias, model.SeverityHigh)
	seedFlag(t, st, "f3", "a", model.FlagLowQuality, model.SeverityLow)

	removed, err := NewReviewer(st).RemoveBySeverity(ctx, model.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestRemoveBySeverity_UnknownSeverity(t *testing.T) {
	st := newTestStore(t)
	_, err := NewReviewer(st).RemoveBySeverity(context.Background(), "fatal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown severity")
}

func TestClearAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	seedInsight(t, st, "a", "First insight", cleanBody, model.StatusApproved)
	seedFlag(t, st, "f1", "a", model.FlagBias, model.SeverityHigh)
	seedFlag(t, st, "f2", "a", model.FlagLowQuality, model.SeverityLow)

	n, err := NewReviewer(st).ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Records are untouched.
	rec, err := st.GetInsight(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
