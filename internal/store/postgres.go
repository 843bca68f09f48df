package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/reflectic/curation-cli/internal/db"
	"github.com/reflectic/curation-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests and callers that
// manage pool lifecycle themselves.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS insights (
	id               TEXT PRIMARY KEY,
	source_label     TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL,
	domain           TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	content_hash     TEXT NOT NULL,
	payload          JSONB NOT NULL,
	used_in_training BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL,
	approved_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS insight_flags (
	id         TEXT PRIMARY KEY,
	insight_id TEXT NOT NULL,
	category   TEXT NOT NULL,
	severity   TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reason     TEXT NOT NULL,
	decision   TEXT NOT NULL DEFAULT '',
	flagged_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	insight_id      TEXT NOT NULL DEFAULT '',
	rating          TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	payload         JSONB NOT NULL,
	last_calculated TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(status);
CREATE INDEX IF NOT EXISTS idx_insights_category ON insights(category);
CREATE INDEX IF NOT EXISTS idx_insights_hash ON insights(content_hash);
CREATE INDEX IF NOT EXISTS idx_flags_insight ON insight_flags(insight_id);
CREATE INDEX IF NOT EXISTS idx_flags_severity ON insight_flags(severity);
CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) PutInsight(ctx context.Context, rec *model.InsightRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal insight")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO insights (id, source_label, category, domain, status, content_hash, payload, used_in_training, created_at, approved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.SourceLabel, rec.Category, string(rec.Domain), string(rec.Status),
		rec.ContentHash, payload, rec.UsedInTraining, rec.CreatedAt, rec.ApprovedAt,
	)
	return eris.Wrapf(err, "postgres: insert insight %s", rec.ID)
}

// PutInsights bulk-loads a batch via the COPY protocol.
func (s *PostgresStore) PutInsights(ctx context.Context, recs []model.InsightRecord) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal insight")
		}
		rows = append(rows, []any{
			rec.ID, rec.SourceLabel, rec.Category, string(rec.Domain), string(rec.Status),
			rec.ContentHash, payload, rec.UsedInTraining, rec.CreatedAt, rec.ApprovedAt,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "insights",
		[]string{"id", "source_label", "category", "domain", "status", "content_hash", "payload", "used_in_training", "created_at", "approved_at"},
		rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk insert insights")
	}
	return int(n), nil
}

func (s *PostgresStore) GetInsight(ctx context.Context, id string) (*model.InsightRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload, status, used_in_training, approved_at FROM insights WHERE id = $1`, id)
	return scanInsightPG(row)
}

func (s *PostgresStore) ListInsights(ctx context.Context, filter InsightFilter) ([]model.InsightRecord, error) {
	query := `SELECT payload, status, used_in_training, approved_at FROM insights WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $` + itoa(len(args))
	}
	if filter.Domain != "" {
		args = append(args, string(filter.Domain))
		query += ` AND domain = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list insights")
	}
	defer rows.Close()

	var out []model.InsightRecord
	for rows.Next() {
		rec, err := scanInsightPG(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list insights iterate")
}

func (s *PostgresStore) CountInsights(ctx context.Context, status model.Status) (int, error) {
	query := `SELECT COUNT(*) FROM insights`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count insights")
	}
	return n, nil
}

func (s *PostgresStore) UpdateInsightStatus(ctx context.Context, id string, status model.Status) error {
	var approvedAt *time.Time
	if status == model.StatusApproved {
		t := time.Now().UTC()
		approvedAt = &t
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE insights SET status = $1, approved_at = COALESCE($2, approved_at) WHERE id = $3`,
		string(status), approvedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update insight status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("insight not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetUsedInTraining(ctx context.Context, id string, used bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE insights SET used_in_training = $1 WHERE id = $2`, used, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set used_in_training %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("insight not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteInsight(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM insights WHERE id = $1`, id)
	return eris.Wrapf(err, "postgres: delete insight %s", id)
}

func (s *PostgresStore) AppendFlag(ctx context.Context, flag *model.FlaggedInsight) error {
	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	if flag.FlaggedAt.IsZero() {
		flag.FlaggedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO insight_flags (id, insight_id, category, severity, confidence, reason, decision, flagged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		flag.ID, flag.InsightID, string(flag.Category), string(flag.Severity),
		flag.Confidence, flag.Reason, string(flag.Decision), flag.FlaggedAt,
	)
	return eris.Wrapf(err, "postgres: insert flag for insight %s", flag.InsightID)
}

func (s *PostgresStore) GetFlag(ctx context.Context, id string) (*model.FlaggedInsight, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, insight_id, category, severity, confidence, reason, decision, flagged_at
		 FROM insight_flags WHERE id = $1`, id)
	return scanFlagPG(row)
}

func (s *PostgresStore) ListFlags(ctx context.Context, filter FlagFilter) ([]model.FlaggedInsight, error) {
	query := `SELECT id, insight_id, category, severity, confidence, reason, decision, flagged_at
	          FROM insight_flags WHERE 1=1`
	var args []any

	if filter.InsightID != "" {
		args = append(args, filter.InsightID)
		query += ` AND insight_id = $` + itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += ` AND category = $` + itoa(len(args))
	}
	if filter.Undecided {
		query += ` AND decision = ''`
	}
	query += ` ORDER BY flagged_at ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list flags")
	}
	defer rows.Close()

	var out []model.FlaggedInsight
	for rows.Next() {
		f, err := scanFlagPG(rows)
		if err != nil {
			return nil, err
		}
		if filter.MinSeverity != "" && !f.Severity.AtLeast(filter.MinSeverity) {
			continue
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list flags iterate")
}

func (s *PostgresStore) SetFlagDecision(ctx context.Context, id string, decision model.Decision) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE insight_flags SET decision = $1 WHERE id = $2`, string(decision), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set flag decision %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("flag not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteFlag(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM insight_flags WHERE id = $1`, id)
	return eris.Wrapf(err, "postgres: delete flag %s", id)
}

func (s *PostgresStore) DeleteFlagsByInsight(ctx context.Context, insightID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM insight_flags WHERE insight_id = $1`, insightID)
	return eris.Wrapf(err, "postgres: delete flags for insight %s", insightID)
}

func (s *PostgresStore) ClearFlags(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM insight_flags`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear flags")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) AppendFeedback(ctx context.Context, fb *model.UserFeedback, maxEntries int) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO feedback (id, conversation_id, insight_id, rating, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		fb.ID, fb.ConversationID, fb.InsightID, string(fb.Rating), fb.Category, fb.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert feedback")
	}

	if maxEntries > 0 {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM feedback WHERE id IN (
				SELECT id FROM feedback ORDER BY created_at DESC, id DESC OFFSET $1
			)`, maxEntries)
		if err != nil {
			return eris.Wrap(err, "postgres: evict feedback")
		}
	}
	return nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, limit int) ([]model.UserFeedback, error) {
	query := `SELECT id, conversation_id, insight_id, rating, category, created_at
	          FROM feedback ORDER BY created_at ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list feedback")
	}
	defer rows.Close()

	var out []model.UserFeedback
	for rows.Next() {
		var fb model.UserFeedback
		var rating string
		if err := rows.Scan(&fb.ID, &fb.ConversationID, &fb.InsightID, &rating, &fb.Category, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan feedback")
		}
		fb.Rating = model.Rating(rating)
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list feedback iterate")
}

func (s *PostgresStore) SaveMetrics(ctx context.Context, m *model.QualityMetrics) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quality_metrics (id, payload, last_calculated) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, last_calculated = EXCLUDED.last_calculated`,
		payload, m.LastCalculated,
	)
	return eris.Wrap(err, "postgres: save metrics")
}

func (s *PostgresStore) LatestMetrics(ctx context.Context) (*model.QualityMetrics, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM quality_metrics WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest metrics")
	}
	var m model.QualityMetrics
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metrics")
	}
	return &m, nil
}

// helpers

func itoa(n int) string {
	return strconv.Itoa(n)
}

func scanInsightPG(row pgx.Row) (*model.InsightRecord, error) {
	var payload []byte
	var status string
	var used bool
	var approvedAt *time.Time

	err := row.Scan(&payload, &status, &used, &approvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan insight")
	}

	var rec model.InsightRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal insight")
	}
	rec.Status = model.Status(status)
	rec.UsedInTraining = used
	rec.ApprovedAt = approvedAt
	return &rec, nil
}

func scanFlagPG(row pgx.Row) (*model.FlaggedInsight, error) {
	var f model.FlaggedInsight
	var category, severity, decision string
	err := row.Scan(&f.ID, &f.InsightID, &category, &severity, &f.Confidence, &f.Reason, &decision, &f.FlaggedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan flag")
	}
	f.Category = model.FlagCategory(category)
	f.Severity = model.Severity(severity)
	f.Decision = model.Decision(decision)
	return &f, nil
}
