package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reflectic/curation-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS insights (
	id               TEXT PRIMARY KEY,
	source_label     TEXT NOT NULL DEFAULT '',
	category         TEXT NOT NULL,
	domain           TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'pending',
	content_hash     TEXT NOT NULL,
	payload          TEXT NOT NULL,
	used_in_training INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL,
	approved_at      DATETIME
);

CREATE TABLE IF NOT EXISTS insight_flags (
	id         TEXT PRIMARY KEY,
	insight_id TEXT NOT NULL,
	category   TEXT NOT NULL,
	severity   TEXT NOT NULL,
	confidence REAL NOT NULL,
	reason     TEXT NOT NULL,
	decision   TEXT NOT NULL DEFAULT '',
	flagged_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	insight_id      TEXT NOT NULL DEFAULT '',
	rating          TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quality_metrics (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	payload         TEXT NOT NULL,
	last_calculated DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_insights_status ON insights(status);
CREATE INDEX IF NOT EXISTS idx_insights_category ON insights(category);
CREATE INDEX IF NOT EXISTS idx_insights_hash ON insights(content_hash);
CREATE INDEX IF NOT EXISTS idx_flags_insight ON insight_flags(insight_id);
CREATE INDEX IF NOT EXISTS idx_flags_severity ON insight_flags(severity);
CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutInsight(ctx context.Context, rec *model.InsightRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal insight")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO insights (id, source_label, category, domain, status, content_hash, payload, used_in_training, created_at, approved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceLabel, rec.Category, string(rec.Domain), string(rec.Status),
		rec.ContentHash, string(payload), boolToInt(rec.UsedInTraining), rec.CreatedAt, rec.ApprovedAt,
	)
	return eris.Wrapf(err, "sqlite: insert insight %s", rec.ID)
}

func (s *SQLiteStore) PutInsights(ctx context.Context, recs []model.InsightRecord) (int, error) {
	inserted := 0
	for i := range recs {
		if err := s.PutInsight(ctx, &recs[i]); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (s *SQLiteStore) GetInsight(ctx context.Context, id string) (*model.InsightRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, status, used_in_training, approved_at FROM insights WHERE id = ?`, id)
	return scanInsight(row)
}

func (s *SQLiteStore) ListInsights(ctx context.Context, filter InsightFilter) ([]model.InsightRecord, error) {
	query := `SELECT payload, status, used_in_training, approved_at FROM insights WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, string(filter.Domain))
	}
	query += ` ORDER BY created_at ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list insights")
	}
	defer rows.Close()

	var out []model.InsightRecord
	for rows.Next() {
		rec, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list insights iterate")
}

func (s *SQLiteStore) CountInsights(ctx context.Context, status model.Status) (int, error) {
	query := `SELECT COUNT(*) FROM insights`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count insights")
	}
	return n, nil
}

func (s *SQLiteStore) UpdateInsightStatus(ctx context.Context, id string, status model.Status) error {
	var approvedAt any
	if status == model.StatusApproved {
		approvedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE insights SET status = ?, approved_at = COALESCE(?, approved_at) WHERE id = ?`,
		string(status), approvedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update insight status %s", id)
	}
	return checkRowsAffected(res, "insight", id)
}

func (s *SQLiteStore) SetUsedInTraining(ctx context.Context, id string, used bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE insights SET used_in_training = ? WHERE id = ?`, boolToInt(used), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set used_in_training %s", id)
	}
	return checkRowsAffected(res, "insight", id)
}

func (s *SQLiteStore) DeleteInsight(ctx context.Context, id string) error {
	// Idempotent: zero rows affected is success.
	_, err := s.db.ExecContext(ctx, `DELETE FROM insights WHERE id = ?`, id)
	return eris.Wrapf(err, "sqlite: delete insight %s", id)
}

func (s *SQLiteStore) AppendFlag(ctx context.Context, flag *model.FlaggedInsight) error {
	if flag.ID == "" {
		flag.ID = uuid.New().String()
	}
	if flag.FlaggedAt.IsZero() {
		flag.FlaggedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO insight_flags (id, insight_id, category, severity, confidence, reason, decision, flagged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		flag.ID, flag.InsightID, string(flag.Category), string(flag.Severity),
		flag.Confidence, flag.Reason, string(flag.Decision), flag.FlaggedAt,
	)
	return eris.Wrapf(err, "sqlite: insert flag for insight %s", flag.InsightID)
}

func (s *SQLiteStore) GetFlag(ctx context.Context, id string) (*model.FlaggedInsight, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, insight_id, category, severity, confidence, reason, decision, flagged_at
		 FROM insight_flags WHERE id = ?`, id)
	return scanFlag(row)
}

func (s *SQLiteStore) ListFlags(ctx context.Context, filter FlagFilter) ([]model.FlaggedInsight, error) {
	query := `SELECT id, insight_id, category, severity, confidence, reason, decision, flagged_at
	          FROM insight_flags WHERE 1=1`
	var args []any

	if filter.InsightID != "" {
		query += ` AND insight_id = ?`
		args = append(args, filter.InsightID)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Undecided {
		query += ` AND decision = ''`
	}
	query += ` ORDER BY flagged_at ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list flags")
	}
	defer rows.Close()

	var out []model.FlaggedInsight
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		// Severity ordering is application-defined, so filter here rather
		// than in SQL.
		if filter.MinSeverity != "" && !f.Severity.AtLeast(filter.MinSeverity) {
			continue
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list flags iterate")
}

func (s *SQLiteStore) SetFlagDecision(ctx context.Context, id string, decision model.Decision) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE insight_flags SET decision = ? WHERE id = ?`, string(decision), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set flag decision %s", id)
	}
	return checkRowsAffected(res, "flag", id)
}

func (s *SQLiteStore) DeleteFlag(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM insight_flags WHERE id = ?`, id)
	return eris.Wrapf(err, "sqlite: delete flag %s", id)
}

func (s *SQLiteStore) DeleteFlagsByInsight(ctx context.Context, insightID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM insight_flags WHERE insight_id = ?`, insightID)
	return eris.Wrapf(err, "sqlite: delete flags for insight %s", insightID)
}

func (s *SQLiteStore) ClearFlags(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM insight_flags`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear flags")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) AppendFeedback(ctx context.Context, fb *model.UserFeedback, maxEntries int) error {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, conversation_id, insight_id, rating, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.ID, fb.ConversationID, fb.InsightID, string(fb.Rating), fb.Category, fb.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert feedback")
	}

	if maxEntries > 0 {
		// Evict oldest entries beyond the cap.
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM feedback WHERE id IN (
				SELECT id FROM feedback ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?
			)`, maxEntries)
		if err != nil {
			return eris.Wrap(err, "sqlite: evict feedback")
		}
	}
	return nil
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, limit int) ([]model.UserFeedback, error) {
	query := `SELECT id, conversation_id, insight_id, rating, category, created_at
	          FROM feedback ORDER BY created_at ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list feedback")
	}
	defer rows.Close()

	var out []model.UserFeedback
	for rows.Next() {
		var fb model.UserFeedback
		if err := rows.Scan(&fb.ID, &fb.ConversationID, &fb.InsightID, &fb.Rating, &fb.Category, &fb.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan feedback")
		}
		out = append(out, fb)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list feedback iterate")
}

func (s *SQLiteStore) SaveMetrics(ctx context.Context, m *model.QualityMetrics) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quality_metrics (id, payload, last_calculated) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, last_calculated = excluded.last_calculated`,
		string(payload), m.LastCalculated,
	)
	return eris.Wrap(err, "sqlite: save metrics")
}

func (s *SQLiteStore) LatestMetrics(ctx context.Context) (*model.QualityMetrics, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM quality_metrics WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest metrics")
	}
	var m model.QualityMetrics
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metrics")
	}
	return &m, nil
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanInsight(row scannable) (*model.InsightRecord, error) {
	var payload string
	var status string
	var used int
	var approvedAt sql.NullTime

	err := row.Scan(&payload, &status, &used, &approvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan insight")
	}

	var rec model.InsightRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal insight")
	}
	// Columns are authoritative for mutable fields.
	rec.Status = model.Status(status)
	rec.UsedInTraining = used != 0
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}
	return &rec, nil
}

func scanFlag(row scannable) (*model.FlaggedInsight, error) {
	var f model.FlaggedInsight
	err := row.Scan(&f.ID, &f.InsightID, &f.Category, &f.Severity, &f.Confidence, &f.Reason, &f.Decision, &f.FlaggedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan flag")
	}
	return &f, nil
}
