// Package cleanup drives whole-corpus scans: content filters, dedup, and
// optional cross-source checks, with auto-removal of high-confidence
// problems and a human review queue for the rest.
package cleanup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/dedup"
	"github.com/reflectic/curation-cli/internal/filter"
	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
	"github.com/reflectic/curation-cli/internal/validate"
)

// Options controls a single cleanup run.
type Options struct {
	AutoRemove          bool    `json:"auto_remove"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	IncludeCrossSource  bool    `json:"include_cross_source"`
}

// Orchestrator runs the cleanup pipeline over the union of pending and
// approved records. Each record's fate is decided independently: a crash
// mid-run leaves the corpus valid and re-scannable.
type Orchestrator struct {
	store    store.Store
	engine   *filter.Engine
	dedupCfg config.DedupConfig
	crossCfg config.CrossSourceConfig
}

// New creates an Orchestrator.
func New(st store.Store, engine *filter.Engine, dedupCfg config.DedupConfig, crossCfg config.CrossSourceConfig) *Orchestrator {
	return &Orchestrator{store: st, engine: engine, dedupCfg: dedupCfg, crossCfg: crossCfg}
}

// Run executes a full scan and returns the structured report. The scan is
// CPU-bound and checks ctx between records so manual runs stay cancellable.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	log := zap.L().With(zap.Bool("auto_remove", opts.AutoRemove))
	log.Info("cleanup: starting scan")

	records := o.loadCorpus(ctx)

	report := NewReport()
	report.Summary.Scanned = len(records)

	ded := dedup.New(o.dedupCfg, records)

	var crossChecker *validate.CrossSourceChecker
	if opts.IncludeCrossSource {
		crossChecker = validate.NewCrossSourceChecker(o.crossCfg, records)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "cleanup: scan cancelled")
		}
		rec := &records[i]

		flags := o.engine.Evaluate(rec)

		if m, ok := ded.CheckExact(rec); ok {
			flags = append(flags, ded.Flag(m))
		} else {
			m, ok, err := ded.CheckSemantic(ctx, rec)
			if err != nil {
				return nil, eris.Wrap(err, "cleanup: scan cancelled")
			}
			if ok {
				flags = append(flags, ded.Flag(m))
			}
		}

		if crossChecker != nil {
			cs, err := crossChecker.Check(ctx, i)
			if err != nil {
				return nil, eris.Wrap(err, "cleanup: scan cancelled")
			}
			if !cs.Validated {
				flags = append(flags, model.FlaggedInsight{
					InsightID:  rec.ID,
					Reason:     "no corroborating records from other sources",
					Category:   model.FlagBadSource,
					Confidence: 0.5,
					Severity:   model.SeverityLow,
				})
			}
		}

		o.applyFlags(ctx, rec, flags, opts, report)
	}

	report.Finalize()

	log.Info("cleanup: scan complete",
		zap.Int("scanned", report.Summary.Scanned),
		zap.Int("found", report.Summary.Found),
		zap.Int("auto_removed", report.Summary.AutoRemoved),
		zap.Int("needs_review", report.Summary.NeedsReview),
		zap.Float64("health_score", report.HealthScore),
	)
	return report, nil
}

// loadCorpus reads the approved+pending union, approved first and older
// records first within each status. The deduper treats earlier records as
// canonical, so this ordering keeps the accepted corpus authoritative: a
// pending copy of an approved insight is the one flagged, never the
// original. A storage failure is logged and treated as no data available
// rather than aborting the run.
func (o *Orchestrator) loadCorpus(ctx context.Context) []model.InsightRecord {
	var records []model.InsightRecord
	for _, status := range []model.Status{model.StatusApproved, model.StatusPending} {
		batch, err := o.store.ListInsights(ctx, store.InsightFilter{Status: status})
		if err != nil {
			zap.L().Error("cleanup: list insights failed, treating as empty",
				zap.String("status", string(status)),
				zap.Error(err),
			)
			continue
		}
		records = append(records, batch...)
	}
	return records
}

// applyFlags decides each flag's fate: auto-removal when confidence meets
// the threshold and severity is above low, otherwise persistence to the
// review queue. Removal is keyed by record id, so a concurrent intake can
// never be corrupted by an in-flight cleanup.
func (o *Orchestrator) applyFlags(ctx context.Context, rec *model.InsightRecord, flags []model.FlaggedInsight, opts Options, report *Report) {
	removed := false
	for _, f := range flags {
		report.AddFlag(f)

		if opts.AutoRemove && !removed &&
			f.Confidence >= opts.ConfidenceThreshold && f.Severity != model.SeverityLow {
			if err := o.store.DeleteInsight(ctx, rec.ID); err != nil {
				zap.L().Error("cleanup: auto-remove failed",
					zap.String("insight_id", rec.ID),
					zap.Error(err),
				)
			} else {
				if err := o.store.DeleteFlagsByInsight(ctx, rec.ID); err != nil {
					zap.L().Warn("cleanup: clearing flags of removed insight failed",
						zap.String("insight_id", rec.ID),
						zap.Error(err),
					)
				}
				removed = true
				report.Summary.AutoRemoved++
				zap.L().Info("cleanup: auto-removed insight",
					zap.String("insight_id", rec.ID),
					zap.String("reason", f.Reason),
					zap.Float64("confidence", f.Confidence),
				)
			}
			continue
		}

		if !removed {
			if o.alreadyQueued(ctx, f) {
				continue
			}
			if err := o.store.AppendFlag(ctx, &f); err != nil {
				zap.L().Error("cleanup: persist flag failed",
					zap.String("insight_id", rec.ID),
					zap.Error(err),
				)
				continue
			}
			report.Summary.NeedsReview++
		}
	}
}

// alreadyQueued reports whether an identical flag is already sitting in the
// review queue, so repeated scans stay idempotent instead of double-counting.
func (o *Orchestrator) alreadyQueued(ctx context.Context, f model.FlaggedInsight) bool {
	existing, err := o.store.ListFlags(ctx, store.FlagFilter{
		InsightID: f.InsightID,
		Category:  f.Category,
	})
	if err != nil {
		zap.L().Warn("cleanup: list existing flags failed",
			zap.String("insight_id", f.InsightID),
			zap.Error(err),
		)
		return false
	}
	for _, e := range existing {
		if e.Reason == f.Reason && e.Severity == f.Severity {
			return true
		}
	}
	return false
}
