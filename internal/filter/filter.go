// Package filter evaluates insight records against rule-based content
// filters, producing flags with severity and a fixed per-family confidence.
package filter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/model"
)

// Engine evaluates a set of rule families against records. It is generic
// over the family definitions: built-in and operator-supplied rules run the
// same way.
type Engine struct {
	families []Family
}

// NewEngine creates an Engine over the given families. With no families it
// runs the built-in defaults.
func NewEngine(families ...Family) *Engine {
	if len(families) == 0 {
		families = DefaultFamilies()
	}
	return &Engine{families: families}
}

// Evaluate runs every family against the record and returns the resulting
// flags. Harmful and bias families yield at most one flag each (first match
// wins); low-quality yields one flag per failed heuristic.
func (e *Engine) Evaluate(rec *model.InsightRecord) []model.FlaggedInsight {
	var flags []model.FlaggedInsight

	fullText := strings.ToLower(rec.FullText())
	body := strings.ToLower(rec.Body)

	for _, fam := range e.families {
		text := fullText
		if fam.BodyOnly {
			text = body
		}
		for _, rule := range fam.Rules {
			if !rule.Match(text) {
				continue
			}
			flags = append(flags, model.FlaggedInsight{
				InsightID:  rec.ID,
				Reason:     fam.Name + ": " + rule.Descriptor,
				Category:   fam.Category,
				Confidence: fam.Confidence,
				Severity:   rule.Severity,
			})
			if fam.FirstMatchOnly {
				break
			}
		}
	}

	if len(flags) > 0 {
		zap.L().Debug("filter: record flagged",
			zap.String("insight_id", rec.ID),
			zap.Int("flags", len(flags)),
		)
	}
	return flags
}
