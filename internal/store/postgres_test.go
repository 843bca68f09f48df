package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectic/curation-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgresMigrate_CreatesFlagIndexes(t *testing.T) {
	// Both backends keep the same index set over insight_flags.
	st, mock := newMockStore(t)

	mock.ExpectExec("(?s)idx_flags_insight.*idx_flags_severity").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutInsight(t *testing.T) {
	st, mock := newMockStore(t)

	rec := testRecord("a")
	mock.ExpectExec("INSERT INTO insights").
		WithArgs(rec.ID, rec.SourceLabel, rec.Category, string(rec.Domain), string(rec.Status),
			rec.ContentHash, pgxmock.AnyArg(), rec.UsedInTraining, rec.CreatedAt, rec.ApprovedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.PutInsight(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetInsight_NotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT payload, status, used_in_training, approved_at FROM insights").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"payload", "status", "used_in_training", "approved_at"}))

	rec, err := st.GetInsight(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetInsight_Found(t *testing.T) {
	st, mock := newMockStore(t)

	payload := []byte(`{"id":"a","title":"Waves","body":"Grief comes in waves.","category":"grief_processing"}`)
	approved := time.Now().UTC()
	mock.ExpectQuery("SELECT payload, status, used_in_training, approved_at FROM insights").
		WithArgs("a").
		WillReturnRows(
			pgxmock.NewRows([]string{"payload", "status", "used_in_training", "approved_at"}).
				AddRow(payload, "approved", true, &approved),
		)

	rec, err := st.GetInsight(context.Background(), "a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	// Columns override the payload copy of mutable fields.
	assert.Equal(t, model.StatusApproved, rec.Status)
	assert.True(t, rec.UsedInTraining)
	require.NotNil(t, rec.ApprovedAt)
	assert.Equal(t, "Waves", rec.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateInsightStatus_NotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE insights SET status").
		WithArgs("approved", pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateInsightStatus(context.Background(), "nope", model.StatusApproved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insight not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteInsight_Idempotent(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM insights").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, st.DeleteInsight(context.Background(), "gone"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutInsights_CopyFrom(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"insights"},
		[]string{"id", "source_label", "category", "domain", "status", "content_hash", "payload", "used_in_training", "created_at", "approved_at"}).
		WillReturnResult(2)

	recs := []model.InsightRecord{*testRecord("a"), *testRecord("b")}
	n, err := st.PutInsights(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutInsights_Empty(t *testing.T) {
	st, mock := newMockStore(t)

	n, err := st.PutInsights(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListFlags_MinSeverityFiltered(t *testing.T) {
	st, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, insight_id, category, severity").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "insight_id", "category", "severity", "confidence", "reason", "decision", "flagged_at"}).
				AddRow("f1", "a", "harmful", "critical", 0.9, "x", "", now).
				AddRow("f2", "a", "low_quality", "low", 0.7, "y", "", now),
		)

	flags, err := st.ListFlags(context.Background(), FlagFilter{MinSeverity: model.SeverityHigh})
	require.NoError(t, err)
	require.Len(t, flags, 1)
	assert.Equal(t, "f1", flags[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetFlagDecision_NotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE insight_flags SET decision").
		WithArgs("keep", "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.SetFlagDecision(context.Background(), "nope", model.DecisionKeep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag not found")
}

func TestPostgresAppendFeedback_EvictsBeyondCap(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO feedback").
		WithArgs(pgxmock.AnyArg(), "c1", "", "helpful", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM feedback WHERE id IN").
		WithArgs(100).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	fb := &model.UserFeedback{ConversationID: "c1", Rating: model.RatingHelpful}
	require.NoError(t, st.AppendFeedback(context.Background(), fb, 100))
	assert.NotEmpty(t, fb.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLatestMetrics_None(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT payload FROM quality_metrics").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	m, err := st.LatestMetrics(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestPostgresSaveMetrics_Upsert(t *testing.T) {
	st, mock := newMockStore(t)

	m := &model.QualityMetrics{OverallQuality: 70, LastCalculated: time.Now().UTC()}
	mock.ExpectExec("INSERT INTO quality_metrics").
		WithArgs(pgxmock.AnyArg(), m.LastCalculated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.SaveMetrics(context.Background(), m))
	assert.NoError(t, mock.ExpectationsWereMet())
}
