// Package validate estimates cross-source corroboration and tracks category
// distribution against fixed balance targets.
package validate

import (
	"context"
	"math"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/dedup"
	"github.com/reflectic/curation-cli/internal/model"
)

// CrossSourceResult describes corroboration for one record.
type CrossSourceResult struct {
	InsightID   string   `json:"insight_id"`
	Sources     []string `json:"sources"`
	SourceCount int      `json:"source_count"`
	Validated   bool     `json:"validated"`
	Confidence  float64  `json:"confidence"`
}

// CrossSourceChecker clusters records by topical similarity to estimate how
// many independent sources corroborate each claim. The pairwise pass is
// O(n^2) over the corpus; acceptable at thousands of records.
type CrossSourceChecker struct {
	cfg     config.CrossSourceConfig
	records []model.InsightRecord
	vectors []dedup.TermVector
}

// NewCrossSourceChecker creates a checker over the given corpus.
func NewCrossSourceChecker(cfg config.CrossSourceConfig, corpus []model.InsightRecord) *CrossSourceChecker {
	vectors := make([]dedup.TermVector, len(corpus))
	for i := range corpus {
		vectors[i] = dedup.Vectorize(corpus[i].Title + " " + corpus[i].Body)
	}
	return &CrossSourceChecker{cfg: cfg, records: corpus, vectors: vectors}
}

// Check computes corroboration for the record at index idx: the distinct
// source labels among records whose similarity meets the topical agreement
// threshold, the record's own source included. Validated when the distinct
// count reaches MinSources, with confidence min(count/5, 1.0).
func (c *CrossSourceChecker) Check(ctx context.Context, idx int) (*CrossSourceResult, error) {
	rec := &c.records[idx]
	sources := map[string]bool{rec.SourceLabel: true}

	for j := range c.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if j == idx {
			continue
		}
		if dedup.Cosine(c.vectors[idx], c.vectors[j]) >= c.cfg.AgreementThreshold {
			sources[c.records[j].SourceLabel] = true
		}
	}

	result := &CrossSourceResult{
		InsightID:   rec.ID,
		SourceCount: len(sources),
	}
	for s := range sources {
		result.Sources = append(result.Sources, s)
	}
	if result.SourceCount >= c.cfg.MinSources {
		result.Validated = true
		result.Confidence = math.Min(float64(result.SourceCount)/5.0, 1.0)
	}
	return result, nil
}

// CheckAll computes corroboration for every record in the corpus.
func (c *CrossSourceChecker) CheckAll(ctx context.Context) ([]CrossSourceResult, error) {
	out := make([]CrossSourceResult, 0, len(c.records))
	for i := range c.records {
		r, err := c.Check(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// Score reduces corroboration results to a corpus-wide 0-100 score: the
// share of records that are cross-validated. An empty corpus scores 100.
func Score(results []CrossSourceResult) float64 {
	if len(results) == 0 {
		return 100
	}
	validated := 0
	for _, r := range results {
		if r.Validated {
			validated++
		}
	}
	return float64(validated) / float64(len(results)) * 100
}
