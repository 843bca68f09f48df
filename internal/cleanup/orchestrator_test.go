package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/filter"
	"github.com/reflectic/curation-cli/internal/intake"
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

func newTestOrchestrator(st store.Store) *Orchestrator {
	return New(st, filter.NewEngine(),
		config.DedupConfig{DuplicateThreshold: 0.85, NearDuplicateThreshold: 0.65},
		config.CrossSourceConfig{AgreementThreshold: 0.6, MinSources: 2},
	)
}

func seedInsight(t *testing.T, st store.Store, id, title, body string, status model.Status) {
	t.Helper()
	rec := model.InsightRecord{
		ID:          id,
		SourceLabel: "interviews/" + id,
		Category:    "grief_processing",
		Domain:      model.DomainPain,
		Title:       title,
		Body:        body,
		ContentHash: intake.ContentHash(title, body),
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.PutInsight(context.Background(), &rec))
}

const cleanBody = "Several participants found that naming an emotion out loud reduced its intensity within minutes of saying it."

func TestRun_CleanCorpus(t *testing.T) {
	st := newTestStore(t)
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)

	report, err := newTestOrchestrator(st).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Scanned)
	assert.Equal(t, 0, report.Summary.Found)
	assert.Equal(t, 100.0, report.HealthScore)
}

func TestRun_QueuesHarmfulFlag(t *testing.T) {
	st := newTestStore(t)
	seedInsight(t, st, "a", "A shortcut",
		"One participant felt better after deciding to stop taking your meds without telling anyone about the change.",
		model.StatusPending)

	report, err := newTestOrchestrator(st).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Found)
	assert.Equal(t, 0, report.Summary.AutoRemoved)
	assert.Equal(t, 1, report.Summary.NeedsReview)

	flags, err := st.ListFlags(context.Background(), store.FlagFilter{InsightID: "a"})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagHarmful, flags[0].Category)
	assert.Equal(t, model.SeverityCritical, flags[0].Severity)
}

func TestRun_AutoRemove(t *testing.T) {
	st := newTestStore(t)
	seedInsight(t, st, "a", "A shortcut",
		"One participant felt better after deciding to stop taking your meds without telling anyone about the change.",
		model.StatusPending)

	report, err := newTestOrchestrator(st).Run(context.Background(), Options{
		AutoRemove:          true,
		ConfidenceThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.AutoRemoved)
	assert.Equal(t, 0, report.Summary.NeedsReview)

	rec, err := st.GetInsight(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, rec)

	flags, err := st.ListFlags(context.Background(), store.FlagFilter{InsightID: "a"})
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestRun_ExactDuplicateNeverAutoRemoved(t *testing.T) {
	// Exact duplicates carry confidence 1.0 but low severity: they always go
	// to the review queue, a human decides which copy survives.
	st := newTestStore(t)
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedInsight(t, st, "b", "Naming the feeling", cleanBody, model.StatusPending)

	report, err := newTestOrchestrator(st).Run(context.Background(), Options{
		AutoRemove:          true,
		ConfidenceThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.AutoRemoved)
	assert.Equal(t, 1, report.Summary.NeedsReview)

	// Both records survive.
	for _, id := range []string{"a", "b"} {
		rec, err := st.GetInsight(context.Background(), id)
		require.NoError(t, err)
		assert.NotNil(t, rec, id)
	}

	flags, err := st.ListFlags(context.Background(), store.FlagFilter{InsightID: "b"})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagDuplicate, flags[0].Category)
	assert.Equal(t, 1.0, flags[0].Confidence)
	assert.Equal(t, model.SeverityLow, flags[0].Severity)
}

func TestRun_ApprovedOriginalSurvivesPendingCopy(t *testing.T) {
	// The approved corpus is canonical in dedup: when a pending record is a
	// near-copy of an approved one, the pending copy is the one flagged and
	// auto-removed, never the original.
	st := newTestStore(t)
	ctx := context.Background()

	orig := model.InsightRecord{
		ID:          "orig",
		SourceLabel: "interviews/orig",
		Category:    "grief_processing",
		Domain:      model.DomainPain,
		Title:       "Naming the feeling",
		Body:        cleanBody,
		ContentHash: intake.ContentHash("Naming the feeling", cleanBody),
		Status:      model.StatusApproved,
		CreatedAt:   time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, st.PutInsight(ctx, &orig))

	// One word changed, so the hash differs but the similarity stays high.
	copyBody := "Several participants found that naming an emotion out loud reduced its intensity within moments of saying it."
	seedInsight(t, st, "copy", "Naming the feeling", copyBody, model.StatusPending)

	report, err := newTestOrchestrator(st).Run(ctx, Options{
		AutoRemove:          true,
		ConfidenceThreshold: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.AutoRemoved)

	kept, err := st.GetInsight(ctx, "orig")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, model.StatusApproved, kept.Status)

	gone, err := st.GetInsight(ctx, "copy")
	require.NoError(t, err)
	assert.Nil(t, gone)

	flags, err := st.ListFlags(ctx, store.FlagFilter{InsightID: "orig"})
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestRun_RescanIdempotent(t *testing.T) {
	st := newTestStore(t)
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)
	seedInsight(t, st, "b", "Naming the feeling", cleanBody, model.StatusPending)

	orch := newTestOrchestrator(st)
	ctx := context.Background()

	_, err := orch.Run(ctx, Options{})
	require.NoError(t, err)
	second, err := orch.Run(ctx, Options{})
	require.NoError(t, err)

	// The duplicate is found again but not queued twice.
	assert.Equal(t, 1, second.Summary.Found)
	assert.Equal(t, 0, second.Summary.NeedsReview)

	flags, err := st.ListFlags(ctx, store.FlagFilter{InsightID: "b"})
	require.NoError(t, err)
	assert.Len(t, flags, 1)
}

func TestRun_CrossSourceFlag(t *testing.T) {
	st := newTestStore(t)
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)

	report, err := newTestOrchestrator(st).Run(context.Background(), Options{
		IncludeCrossSource: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Found)
	flags, err := st.ListFlags(context.Background(), store.FlagFilter{InsightID: "a"})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, model.FlagBadSource, flags[0].Category)
	assert.Equal(t, 0.5, flags[0].Confidence)
	assert.Equal(t, model.SeverityLow, flags[0].Severity)
}

func TestRun_StoreFailureTreatedAsEmpty(t *testing.T) {
	// A cancelled context fails the corpus load; the run degrades to an
	// empty scan instead of erroring.
	st := newTestStore(t)
	seedInsight(t, st, "a", "Naming the feeling", cleanBody, model.StatusApproved)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := newTestOrchestrator(st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Scanned)
}
