package model

import "time"

// FlagCategory classifies why an insight was flagged.
type FlagCategory string

const (
	FlagBias          FlagCategory = "bias"
	FlagContradiction FlagCategory = "contradiction"
	FlagHarmful       FlagCategory = "harmful"
	FlagLowQuality    FlagCategory = "low_quality"
	FlagBadSource     FlagCategory = "bad_source"
	FlagDuplicate     FlagCategory = "duplicate"
)

// Severity orders flags from least to most serious.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities low < medium < high < critical.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of a severity; unknown severities rank
// below low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// KnownSeverity reports whether s is a valid severity value.
func KnownSeverity(s string) bool {
	_, ok := severityRank[Severity(s)]
	return ok
}

// Decision is a reviewer's verdict on a flag.
type Decision string

const (
	DecisionKeep   Decision = "keep"
	DecisionRemove Decision = "remove"
	DecisionEdit   Decision = "edit"
)

// KnownDecision reports whether d is a valid review decision.
func KnownDecision(d string) bool {
	switch Decision(d) {
	case DecisionKeep, DecisionRemove, DecisionEdit:
		return true
	}
	return false
}

// FlaggedInsight is an append-only derived record referencing an insight by
// id. Many flags may reference the same insight.
type FlaggedInsight struct {
	ID         string       `json:"id"`
	InsightID  string       `json:"insight_id"`
	Reason     string       `json:"reason"`
	Category   FlagCategory `json:"category"`
	Confidence float64      `json:"confidence"`
	Severity   Severity     `json:"severity"`
	Decision   Decision     `json:"decision,omitempty"`
	FlaggedAt  time.Time    `json:"flagged_at"`
}
