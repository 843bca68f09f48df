package cleanup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

// Reviewer manages the human review queue over flagged insights.
type Reviewer struct {
	store store.Store
}

// NewReviewer creates a Reviewer.
func NewReviewer(st store.Store) *Reviewer {
	return &Reviewer{store: st}
}

// Decide records a keep/remove/edit decision on a single flag.
//   - keep: the flag is marked decided and the record is untouched.
//   - remove: the record is deleted (idempotent) along with its other flags.
//   - edit: the record transitions to needs_edit; approved payloads are
//     never mutated in place, edits materialize as a new record later.
func (r *Reviewer) Decide(ctx context.Context, flagID string, decision model.Decision) error {
	if !model.KnownDecision(string(decision)) {
		return eris.Errorf("review: unknown decision %q", decision)
	}

	flag, err := r.store.GetFlag(ctx, flagID)
	if err != nil {
		return eris.Wrap(err, "review: get flag")
	}
	if flag == nil {
		return eris.Errorf("review: flag not found: %s", flagID)
	}

	if err := r.store.SetFlagDecision(ctx, flagID, decision); err != nil {
		return eris.Wrap(err, "review: set decision")
	}

	switch decision {
	case model.DecisionRemove:
		if err := r.store.DeleteInsight(ctx, flag.InsightID); err != nil {
			return eris.Wrap(err, "review: remove insight")
		}
		if err := r.store.DeleteFlagsByInsight(ctx, flag.InsightID); err != nil {
			zap.L().Warn("review: clearing flags of removed insight failed",
				zap.String("insight_id", flag.InsightID),
				zap.Error(err),
			)
		}
	case model.DecisionEdit:
		if err := r.store.UpdateInsightStatus(ctx, flag.InsightID, model.StatusNeedsEdit); err != nil {
			// The record may have been removed by a concurrent run; the
			// decision itself still stands.
			zap.L().Warn("review: mark needs_edit failed",
				zap.String("insight_id", flag.InsightID),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("review: flag decided",
		zap.String("flag_id", flagID),
		zap.String("insight_id", flag.InsightID),
		zap.String("decision", string(decision)),
	)
	return nil
}

// BulkRemove removes the records referenced by each flag id and the flags
// themselves. Missing flags are skipped, not errors.
func (r *Reviewer) BulkRemove(ctx context.Context, flagIDs []string) (int, error) {
	removed := 0
	for _, id := range flagIDs {
		flag, err := r.store.GetFlag(ctx, id)
		if err != nil {
			return removed, eris.Wrapf(err, "review: get flag %s", id)
		}
		if flag == nil {
			continue
		}
		if err := r.store.DeleteInsight(ctx, flag.InsightID); err != nil {
			return removed, eris.Wrapf(err, "review: remove insight %s", flag.InsightID)
		}
		if err := r.store.DeleteFlagsByInsight(ctx, flag.InsightID); err != nil {
			return removed, eris.Wrapf(err, "review: delete flags of %s", flag.InsightID)
		}
		removed++
	}
	return removed, nil
}

// RemoveByCategory removes every record referenced by a flag of the given
// category.
func (r *Reviewer) RemoveByCategory(ctx context.Context, category model.FlagCategory) (int, error) {
	flags, err := r.store.ListFlags(ctx, store.FlagFilter{Category: category})
	if err != nil {
		return 0, eris.Wrap(err, "review: list flags by category")
	}
	return r.removeAll(ctx, flags)
}

// RemoveBySeverity removes every record referenced by a flag at or above
// minSeverity (low < medium < high < critical).
func (r *Reviewer) RemoveBySeverity(ctx context.Context, minSeverity model.Severity) (int, error) {
	if !model.KnownSeverity(string(minSeverity)) {
		return 0, eris.Errorf("review: unknown severity %q", minSeverity)
	}
	flags, err := r.store.ListFlags(ctx, store.FlagFilter{MinSeverity: minSeverity})
	if err != nil {
		return 0, eris.Wrap(err, "review: list flags by severity")
	}
	return r.removeAll(ctx, flags)
}

func (r *Reviewer) removeAll(ctx context.Context, flags []model.FlaggedInsight) (int, error) {
	removed := 0
	seen := make(map[string]bool)
	for _, f := range flags {
		if seen[f.InsightID] {
			continue
		}
		seen[f.InsightID] = true
		if err := r.store.DeleteInsight(ctx, f.InsightID); err != nil {
			return removed, eris.Wrapf(err, "review: remove insight %s", f.InsightID)
		}
		if err := r.store.DeleteFlagsByInsight(ctx, f.InsightID); err != nil {
			return removed, eris.Wrapf(err, "review: delete flags of %s", f.InsightID)
		}
		removed++
	}
	return removed, nil
}

// ClearAll empties the review queue without touching any records.
func (r *Reviewer) ClearAll(ctx context.Context) (int, error) {
	n, err := r.store.ClearFlags(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "review: clear flags")
	}
	zap.L().Info("review: queue cleared", zap.Int("flags", n))
	return n, nil
}
