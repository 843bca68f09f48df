package model

import "time"

// BalanceStatus describes how a category's count compares to its target.
type BalanceStatus string

const (
	BalanceUnder    BalanceStatus = "under"
	BalanceBalanced BalanceStatus = "balanced"
	BalanceOver     BalanceStatus = "over"
)

// CategoryBalance is a derived view over the corpus, recomputed on demand
// and never persisted as ground truth.
type CategoryBalance struct {
	Category    string        `json:"category"`
	Domain      Domain        `json:"domain"`
	Count       int           `json:"count"`
	TargetCount int           `json:"target_count"`
	Status      BalanceStatus `json:"status"`
}

// QualityMetrics is the singleton corpus-quality snapshot, overwritten on
// each recomputation. All component scores are 0-100.
type QualityMetrics struct {
	OverallQuality        float64   `json:"overall_quality"`
	DiversityScore        float64   `json:"diversity_score"`
	BalanceScore          float64   `json:"balance_score"`
	FreshnessScore        float64   `json:"freshness_score"`
	CrossSourceScore      float64   `json:"cross_source_score"`
	UserSatisfactionScore float64   `json:"user_satisfaction_score"`
	LastCalculated        time.Time `json:"last_calculated"`
}
