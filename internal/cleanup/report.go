package cleanup

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/reflectic/curation-cli/internal/model"
)

// Per-severity health penalties.
var severityPenalty = map[model.Severity]float64{
	model.SeverityCritical: 20,
	model.SeverityHigh:     10,
	model.SeverityMedium:   5,
	model.SeverityLow:      2,
}

// severityIndicator maps severities to the fixed rendering markers.
var severityIndicator = map[model.Severity]string{
	model.SeverityCritical: "[!!]",
	model.SeverityHigh:     "[! ]",
	model.SeverityMedium:   "[* ]",
	model.SeverityLow:      "[. ]",
}

// Summary holds the counts of a cleanup run.
type Summary struct {
	Scanned     int            `json:"scanned"`
	Found       int            `json:"found"`
	AutoRemoved int            `json:"auto_removed"`
	NeedsReview int            `json:"needs_review"`
	ByCategory  map[string]int `json:"by_category"`
	BySeverity  map[string]int `json:"by_severity"`
}

// Report is the structured outcome of a cleanup run.
type Report struct {
	Summary         Summary                `json:"summary"`
	Flags           []model.FlaggedInsight `json:"flagged_insights"`
	Recommendations []string               `json:"recommendations"`
	HealthScore     float64                `json:"health_score"`
	NextSteps       []string               `json:"next_steps"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Summary: Summary{
			ByCategory: make(map[string]int),
			BySeverity: make(map[string]int),
		},
	}
}

// AddFlag records a found flag in the report counts.
func (r *Report) AddFlag(f model.FlaggedInsight) {
	r.Flags = append(r.Flags, f)
	r.Summary.Found++
	r.Summary.ByCategory[string(f.Category)]++
	r.Summary.BySeverity[string(f.Severity)]++
}

// Finalize computes the health score, recommendations, and next steps from
// the accumulated flags.
func (r *Report) Finalize() {
	health := 100.0
	for _, f := range r.Flags {
		health -= severityPenalty[f.Severity]
	}
	r.HealthScore = math.Max(0, math.Min(100, health))

	r.Recommendations = recommendations(r.Summary)
	r.NextSteps = nextSteps(r.Summary)
}

func recommendations(s Summary) []string {
	var out []string
	if s.ByCategory[string(model.FlagHarmful)] > 0 {
		out = append(out, "Review harmful-content flags first: they carry the highest downstream risk.")
	}
	if s.ByCategory[string(model.FlagDuplicate)] > 2 {
		out = append(out, "Multiple duplicates found: tighten upstream extraction or raise the duplicate threshold.")
	}
	if s.ByCategory[string(model.FlagLowQuality)] > s.Scanned/4 && s.Scanned > 0 {
		out = append(out, "Over a quarter of records are low quality: revisit extraction prompts or source selection.")
	}
	if s.ByCategory[string(model.FlagBadSource)] > 0 {
		out = append(out, "Single-source records found: gather corroborating interviews before approving them.")
	}
	if len(out) == 0 {
		out = append(out, "Corpus looks healthy.")
	}
	return out
}

func nextSteps(s Summary) []string {
	var out []string
	if s.NeedsReview > 0 {
		out = append(out, fmt.Sprintf("Review %d queued flag(s) with 'review list'.", s.NeedsReview))
	}
	if s.AutoRemoved > 0 {
		out = append(out, fmt.Sprintf("%d record(s) were auto-removed; re-run 'metrics' to refresh the quality snapshot.", s.AutoRemoved))
	}
	if len(out) == 0 {
		out = append(out, "No action needed.")
	}
	return out
}

// Render produces the deterministic human-readable report: health score,
// summary counts, by-category counts, by-severity counts, recommendations,
// next steps, in that fixed order.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString("# Corpus Cleanup Report\n\n")
	fmt.Fprintf(&b, "Health score: %.0f/100\n\n", r.HealthScore)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Scanned: %d\n", r.Summary.Scanned)
	fmt.Fprintf(&b, "- Flags found: %d\n", r.Summary.Found)
	fmt.Fprintf(&b, "- Auto-removed: %d\n", r.Summary.AutoRemoved)
	fmt.Fprintf(&b, "- Needs review: %d\n\n", r.Summary.NeedsReview)

	b.WriteString("## By Category\n")
	if len(r.Summary.ByCategory) == 0 {
		b.WriteString("No flags.\n")
	} else {
		for _, k := range sortedKeys(r.Summary.ByCategory) {
			fmt.Fprintf(&b, "- %s: %d\n", k, r.Summary.ByCategory[k])
		}
	}
	b.WriteString("\n")

	b.WriteString("## By Severity\n")
	if len(r.Summary.BySeverity) == 0 {
		b.WriteString("No flags.\n")
	} else {
		// Fixed severity order, most severe first.
		for i := len(severityOrder) - 1; i >= 0; i-- {
			sev := severityOrder[i]
			n, ok := r.Summary.BySeverity[string(sev)]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s %s: %d\n", severityIndicator[sev], sev, n)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	b.WriteString("\n")

	b.WriteString("## Next Steps\n")
	for _, step := range r.NextSteps {
		fmt.Fprintf(&b, "- %s\n", step)
	}

	return b.String()
}

var severityOrder = []model.Severity{
	model.SeverityLow, model.SeverityMedium, model.SeverityHigh, model.SeverityCritical,
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
