// Package scoring time-decays record relevance and classifies records into
// curriculum difficulty tiers for staged training.
package scoring

import (
	"math"
	"time"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/model"
)

// Freshness returns the 0-100 relevance of a record at the given time:
// exponential half-life decay clamped to the configured floor. A record
// created now scores 100; one created exactly one half-life ago scores 50.
func Freshness(cfg config.FreshnessConfig, createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	if ageDays <= 0 {
		return 100
	}
	score := 100 * math.Pow(0.5, ageDays/cfg.HalfLifeDays)
	return math.Max(score, cfg.Floor)
}

// CorpusFreshness returns the mean freshness over the corpus. An empty
// corpus is maximally fresh: nothing stale is vacuously true.
func CorpusFreshness(cfg config.FreshnessConfig, corpus []model.InsightRecord, now time.Time) float64 {
	if len(corpus) == 0 {
		return 100
	}
	var sum float64
	for i := range corpus {
		sum += Freshness(cfg, corpus[i].CreatedAt, now)
	}
	return sum / float64(len(corpus))
}
