package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/intake"
	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

func TestSatisfaction_EmptyIsNeutral(t *testing.T) {
	assert.Equal(t, 50.0, Satisfaction(nil))
}

func TestSatisfaction_Mixed(t *testing.T) {
	entries := []model.UserFeedback{
		{Rating: model.RatingHelpful},   // 100
		{Rating: model.RatingHelpful},   // 100
		{Rating: model.RatingNeutral},   // 50
		{Rating: model.RatingUnhelpful}, // 25
	}
	// (100+100+50+25)/4 = 68.75, rounded to 69.
	assert.Equal(t, 69.0, Satisfaction(entries))
}

func TestSatisfaction_RoundsToNearestInteger(t *testing.T) {
	entries := []model.UserFeedback{
		{Rating: model.RatingHelpful},   // 100
		{Rating: model.RatingHelpful},   // 100
		{Rating: model.RatingUnhelpful}, // 25
		{Rating: model.RatingHarmful},   // 0
	}
	// (100+100+25+0)/4 = 56.25, rounded to 56.
	assert.Equal(t, 56.0, Satisfaction(entries))
}

func TestProblematicInsights_DedupedFirstSeen(t *testing.T) {
	entries := []model.UserFeedback{
		{InsightID: "a", Rating: model.RatingHarmful},
		{InsightID: "b", Rating: model.RatingHelpful},
		{InsightID: "c", Rating: model.RatingUnhelpful},
		{InsightID: "a", Rating: model.RatingUnhelpful},
		{Rating: model.RatingHarmful}, // no insight id
	}
	assert.Equal(t, []string{"a", "c"}, ProblematicInsights(entries))
}

func TestDiversity(t *testing.T) {
	assert.Equal(t, 0.0, Diversity(nil))

	corpus := []model.InsightRecord{
		{Category: "grief_processing"},
		{Category: "grief_processing"},
		{Category: "small_wins"},
	}
	// 2 of 13 known categories present.
	assert.InDelta(t, 2.0/13.0*100, Diversity(corpus), 1e-9)
}

func TestOverallQuality_Weights(t *testing.T) {
	// 0.15*80 + 0.20*60 + 0.15*100 + 0.20*40 + 0.30*50 = 62
	assert.InDelta(t, 62.0, OverallQuality(80, 60, 100, 40, 50), 1e-9)
}

func TestOverallQuality_AllPerfect(t *testing.T) {
	assert.InDelta(t, 100.0, OverallQuality(100, 100, 100, 100, 100), 1e-9)
}

func TestComputeMetrics_EmptyCorpus(t *testing.T) {
	st := newTestStore(t)
	agg := NewAggregator(st,
		config.FreshnessConfig{HalfLifeDays: 180, Floor: 10},
		config.CrossSourceConfig{AgreementThreshold: 0.6, MinSources: 2},
	)

	m, err := agg.ComputeMetrics(context.Background())
	require.NoError(t, err)

	// Empty corpus: no diversity, full balance (all categories in band),
	// vacuous freshness and corroboration, neutral satisfaction.
	assert.Equal(t, 0.0, m.DiversityScore)
	assert.Equal(t, 100.0, m.BalanceScore)
	assert.Equal(t, 100.0, m.FreshnessScore)
	assert.Equal(t, 100.0, m.CrossSourceScore)
	assert.Equal(t, 50.0, m.UserSatisfactionScore)
	// 0.15*0 + 0.20*100 + 0.15*100 + 0.20*100 + 0.30*50 = 70
	assert.InDelta(t, 70.0, m.OverallQuality, 1e-9)
	assert.False(t, m.LastCalculated.IsZero())

	// The snapshot is persisted.
	saved, err := st.LatestMetrics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, m.OverallQuality, saved.OverallQuality)
}

func TestComputeMetrics_UsesApprovedCorpusAndFeedback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	approved := model.InsightRecord{
		ID:          "a",
		SourceLabel: "interviews/iv-1",
		Category:    "grief_processing",
		Domain:      model.DomainPain,
		Title:       "Waves",
		Body:        "Grief comes in waves.",
		ContentHash: intake.ContentHash("Waves", "Grief comes in waves."),
		Status:      model.StatusApproved,
		CreatedAt:   now,
	}
	pending := approved
	pending.ID = "p"
	pending.Status = model.StatusPending

	require.NoError(t, st.PutInsight(ctx, &approved))
	require.NoError(t, st.PutInsight(ctx, &pending))
	require.NoError(t, st.AppendFeedback(ctx, &model.UserFeedback{
		ID: "f1", ConversationID: "c1", Rating: model.RatingHelpful, CreatedAt: now,
	}, 100))

	agg := NewAggregator(st,
		config.FreshnessConfig{HalfLifeDays: 180, Floor: 10},
		config.CrossSourceConfig{AgreementThreshold: 0.6, MinSources: 2},
	)
	m, err := agg.ComputeMetrics(ctx)
	require.NoError(t, err)

	// One approved record just created: fully fresh, one category present,
	// single source so cross-source fails, one helpful rating.
	assert.InDelta(t, 1.0/13.0*100, m.DiversityScore, 0.01)
	assert.Equal(t, 100.0, m.FreshnessScore)
	assert.Equal(t, 0.0, m.CrossSourceScore)
	assert.Equal(t, 100.0, m.UserSatisfactionScore)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}
