// Package intake validates and normalizes candidate insight records and
// stores them in the pending queue.
package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

// Result summarizes a batch import. Batch import is partial-success: items
// that fail validation are recorded and skipped, never aborting the batch.
type Result struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
	IDs      []string `json:"ids,omitempty"`
}

// Importer turns candidate entries into pending insight records.
type Importer struct {
	store store.Store
}

// NewImporter creates an Importer backed by the given store.
func NewImporter(st store.Store) *Importer {
	return &Importer{store: st}
}

// ImportBatch validates each entry, assigns identity and content hash, and
// stores valid records with status pending.
func (im *Importer) ImportBatch(ctx context.Context, entries []Entry) (*Result, error) {
	result := &Result{}
	var records []model.InsightRecord

	for i, e := range entries {
		rec, err := buildRecord(e)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		records = append(records, *rec)
	}

	if len(records) > 0 {
		n, err := im.store.PutInsights(ctx, records)
		result.Imported = n
		if err != nil {
			// Partial store failure: the records before the failure are in,
			// the rest are reported as failed.
			remaining := len(records) - n
			result.Failed += remaining
			result.Errors = append(result.Errors, fmt.Sprintf("store: %v", err))
			zap.L().Error("intake: batch store failure",
				zap.Int("stored", n),
				zap.Int("lost", remaining),
				zap.Error(err),
			)
		}
		for i := 0; i < n; i++ {
			result.IDs = append(result.IDs, records[i].ID)
		}
	}

	zap.L().Info("intake: batch import complete",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ImportOne validates and stores a single candidate.
func (im *Importer) ImportOne(ctx context.Context, e Entry) (*model.InsightRecord, error) {
	rec, err := buildRecord(e)
	if err != nil {
		return nil, err
	}
	if err := im.store.PutInsight(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// buildRecord validates a candidate and materializes the pending record.
// Unknown category or confidence values are hard validation errors, never
// coerced: they would corrupt the fixed balance-target mapping.
func buildRecord(e Entry) (*model.InsightRecord, error) {
	c := e.Candidate

	if strings.TrimSpace(c.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(c.Insight) == "" {
		return nil, fmt.Errorf("insight body is required")
	}
	if !model.KnownCategory(c.Category) {
		return nil, fmt.Errorf("unknown category %q", c.Category)
	}
	if !model.KnownConfidenceLevel(c.ConfidenceLevel) {
		return nil, fmt.Errorf("unknown confidence level %q", c.ConfidenceLevel)
	}

	domain, _ := model.DomainOf(c.Category)

	vuln := model.VulnerabilityLevel(c.VulnerabilityLevel)
	switch vuln {
	case model.VulnerabilitySurface, model.VulnerabilityModerate, model.VulnerabilityDeep:
	case "":
		vuln = model.VulnerabilitySurface
	default:
		return nil, fmt.Errorf("unknown vulnerability level %q", c.VulnerabilityLevel)
	}

	return &model.InsightRecord{
		ID:                  uuid.New().String(),
		SourceID:            e.SourceID,
		SourceLabel:         e.SourceLabel,
		Domain:              domain,
		Category:            c.Category,
		Title:               c.Title,
		Body:                c.Insight,
		CoachingImplication: c.CoachingImplication,
		Quotes:              c.Quotes,
		AntiPatterns:        c.AntiPatterns,
		ExampleResponses:    c.TechniqueSuggestions,
		VulnerabilityLevel:  vuln,
		Confidence:          model.ConfidenceScore(model.ConfidenceLevel(c.ConfidenceLevel)),
		ContentHash:         ContentHash(c.Title, c.Insight),
		Status:              model.StatusPending,
		CreatedAt:           time.Now().UTC(),
	}, nil
}
