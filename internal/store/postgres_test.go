package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS comp_candidates`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCandidates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_comp_candidates"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_comp_candidates"}, candidateColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "comp_candidates" .* ON CONFLICT \("property_id", "comp_id"\)`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.SaveCandidates(context.Background(), "p1", []model.Comparable{
		{ID: "c1", SoldPrice: ptrFloat64(200_000)},
		{SoldPrice: ptrFloat64(210_000)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostgresStore_ListCandidates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := mock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"c1","sold_price":200000,"location":{}}`)).
		AddRow([]byte(`{"id":"c2","list_price":190000,"location":{}}`))
	mock.ExpectQuery(`SELECT data FROM comp_candidates WHERE property_id = \$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	got, err := s.ListCandidates(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	require.NotNil(t, got[1].Price())
	assert.Equal(t, 190_000.0, *got[1].Price())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRecommendation_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("r1", "p1", pgxmock.AnyArg(), true, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := testRecommendation("r1", "p1", now)
	rec.ExceedsMaxBid = true
	require.NoError(t, s.SaveRecommendation(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecommendation(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery(`SELECT data, created_at, updated_at FROM recommendations WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(mock.NewRows([]string{"data", "created_at", "updated_at"}).
			AddRow([]byte(`{"id":"r1","property_id":"p1","bid_range":{"moderate":146000},"risk_warnings":[{"code":"X","severity":"critical"}]}`), created, updated))

	got, err := s.GetRecommendation(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 146_000.0, got.BidRange.Moderate)
	assert.Equal(t, model.SeverityCritical, got.RiskWarnings[0].Severity)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecommendation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data, created_at, updated_at FROM recommendations`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecommendation(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, property_id, result, created_at FROM analyses WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "p1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.SaveAnalysis(context.Background(), &model.CompAnalysisResult{SubjectID: "p1"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "p1", rec.PropertyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecommendations_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`AND property_id = \$1 ORDER BY created_at DESC, id LIMIT \$2 OFFSET \$3`).
		WithArgs("p1", 10, 20).
		WillReturnRows(mock.NewRows([]string{"data", "created_at", "updated_at"}).
			AddRow([]byte(`{"id":"r1","property_id":"p1"}`), now, now))

	got, err := s.ListRecommendations(context.Background(), RecommendationFilter{PropertyID: "p1", Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecommendations_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM recommendations WHERE true ORDER BY created_at DESC, id LIMIT \$1$`).
		WithArgs(50).
		WillReturnRows(mock.NewRows([]string{"data", "created_at", "updated_at"}))

	got, err := s.ListRecommendations(context.Background(), RecommendationFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
