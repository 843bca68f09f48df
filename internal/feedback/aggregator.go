// Package feedback folds downstream usage feedback into corpus-quality
// signals and computes the overall quality metrics snapshot.
package feedback

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/scoring"
	"github.com/reflectic/curation-cli/internal/store"
	"github.com/reflectic/curation-cli/internal/validate"
)

// Overall quality weights. Satisfaction carries the largest share since it
// is the only signal tied to real downstream outcomes.
const (
	weightDiversity    = 0.15
	weightBalance      = 0.20
	weightFreshness    = 0.15
	weightCrossSource  = 0.20
	weightSatisfaction = 0.30
)

// Satisfaction returns the mean rating score over the feedback log, rounded
// to the nearest integer. An empty log is neutral (50), not zero.
func Satisfaction(entries []model.UserFeedback) float64 {
	if len(entries) == 0 {
		return 50
	}
	var sum float64
	for _, e := range entries {
		sum += e.Rating.Score()
	}
	return math.Round(sum / float64(len(entries)))
}

// ProblematicInsights returns the ids of insights referenced by at least one
// unhelpful or harmful entry, deduplicated, in first-seen order.
func ProblematicInsights(entries []model.UserFeedback) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.InsightID == "" || !e.Rating.Negative() {
			continue
		}
		if !seen[e.InsightID] {
			seen[e.InsightID] = true
			out = append(out, e.InsightID)
		}
	}
	return out
}

// Diversity returns the share of known categories present in the corpus,
// 0-100.
func Diversity(corpus []model.InsightRecord) float64 {
	known := model.Categories()
	if len(known) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for i := range corpus {
		present[corpus[i].Category] = true
	}
	n := 0
	for _, c := range known {
		if present[c] {
			n++
		}
	}
	return float64(n) / float64(len(known)) * 100
}

// OverallQuality combines the five 0-100 component scores with fixed
// weights.
func OverallQuality(diversity, balance, freshness, crossSource, satisfaction float64) float64 {
	return weightDiversity*diversity +
		weightBalance*balance +
		weightFreshness*freshness +
		weightCrossSource*crossSource +
		weightSatisfaction*satisfaction
}

// Aggregator computes the quality metrics snapshot from the corpus and the
// feedback log.
type Aggregator struct {
	store       store.Store
	freshness   config.FreshnessConfig
	crossSource config.CrossSourceConfig
}

// NewAggregator creates an Aggregator.
func NewAggregator(st store.Store, freshness config.FreshnessConfig, crossSource config.CrossSourceConfig) *Aggregator {
	return &Aggregator{store: st, freshness: freshness, crossSource: crossSource}
}

// ComputeMetrics derives a fresh QualityMetrics snapshot from the accepted
// corpus and the feedback log, saves it, and returns it. The snapshot is
// always recomputed whole, never incrementally updated.
func (a *Aggregator) ComputeMetrics(ctx context.Context) (*model.QualityMetrics, error) {
	corpus, err := a.store.ListInsights(ctx, store.InsightFilter{Status: model.StatusApproved})
	if err != nil {
		return nil, eris.Wrap(err, "feedback: list corpus")
	}
	entries, err := a.store.ListFeedback(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: list feedback")
	}

	checker := validate.NewCrossSourceChecker(a.crossSource, corpus)
	crossResults, err := checker.CheckAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: cross-source pass")
	}

	now := time.Now().UTC()
	m := &model.QualityMetrics{
		DiversityScore:        round2(Diversity(corpus)),
		BalanceScore:          round2(validate.BalanceScore(validate.ComputeBalance(corpus))),
		FreshnessScore:        round2(scoring.CorpusFreshness(a.freshness, corpus, now)),
		CrossSourceScore:      round2(validate.Score(crossResults)),
		UserSatisfactionScore: round2(Satisfaction(entries)),
		LastCalculated:        now,
	}
	m.OverallQuality = round2(OverallQuality(
		m.DiversityScore, m.BalanceScore, m.FreshnessScore,
		m.CrossSourceScore, m.UserSatisfactionScore,
	))

	if err := a.store.SaveMetrics(ctx, m); err != nil {
		return nil, eris.Wrap(err, "feedback: save metrics")
	}

	zap.L().Info("feedback: metrics computed",
		zap.Float64("overall", m.OverallQuality),
		zap.Float64("satisfaction", m.UserSatisfactionScore),
		zap.Int("corpus", len(corpus)),
		zap.Int("feedback_entries", len(entries)),
	)
	return m, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
