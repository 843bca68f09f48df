package store

import (
	"context"

	"github.com/reflectic/curation-cli/internal/model"
)

// InsightFilter specifies criteria for listing insight records.
type InsightFilter struct {
	Status   model.Status `json:"status,omitempty"`
	Category string       `json:"category,omitempty"`
	Domain   model.Domain `json:"domain,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Offset   int          `json:"offset,omitempty"`
}

// FlagFilter specifies criteria for listing flags.
type FlagFilter struct {
	InsightID   string             `json:"insight_id,omitempty"`
	Category    model.FlagCategory `json:"category,omitempty"`
	MinSeverity model.Severity     `json:"min_severity,omitempty"`
	Undecided   bool               `json:"undecided,omitempty"`
	Limit       int                `json:"limit,omitempty"`
}

// Store defines the persistence interface for the curation pipeline. All
// mutations are individually atomic and keyed by id; a scan interrupted
// mid-run leaves the corpus re-scannable with no partial state.
type Store interface {
	// Insights
	PutInsight(ctx context.Context, rec *model.InsightRecord) error
	PutInsights(ctx context.Context, recs []model.InsightRecord) (int, error)
	GetInsight(ctx context.Context, id string) (*model.InsightRecord, error)
	ListInsights(ctx context.Context, filter InsightFilter) ([]model.InsightRecord, error)
	CountInsights(ctx context.Context, status model.Status) (int, error)
	UpdateInsightStatus(ctx context.Context, id string, status model.Status) error
	SetUsedInTraining(ctx context.Context, id string, used bool) error
	// DeleteInsight is idempotent: deleting a missing id succeeds, so a
	// cleanup run can race a concurrent removal safely.
	DeleteInsight(ctx context.Context, id string) error

	// Flags (append-only review queue)
	AppendFlag(ctx context.Context, flag *model.FlaggedInsight) error
	GetFlag(ctx context.Context, id string) (*model.FlaggedInsight, error)
	ListFlags(ctx context.Context, filter FlagFilter) ([]model.FlaggedInsight, error)
	SetFlagDecision(ctx context.Context, id string, decision model.Decision) error
	DeleteFlag(ctx context.Context, id string) error
	DeleteFlagsByInsight(ctx context.Context, insightID string) error
	ClearFlags(ctx context.Context) (int, error)

	// Feedback log, capped to maxEntries most recent rows.
	AppendFeedback(ctx context.Context, fb *model.UserFeedback, maxEntries int) error
	ListFeedback(ctx context.Context, limit int) ([]model.UserFeedback, error)

	// Quality metrics snapshot (singleton, overwritten per run).
	SaveMetrics(ctx context.Context, m *model.QualityMetrics) error
	LatestMetrics(ctx context.Context) (*model.QualityMetrics, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
