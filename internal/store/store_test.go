package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRecommendation(id, propertyID string, created time.Time) *model.BidRecommendation {
	return &model.BidRecommendation{
		ID:         id,
		PropertyID: propertyID,
		BidRange:   model.BidRange{Conservative: 124_100, Moderate: 146_000, Aggressive: 160_600},
		RiskWarnings: []model.RiskWarning{
			{Code: "FEW_COMPARABLES", Severity: model.SeverityHigh, Message: "Only 1 comparable"},
		},
		ConfidenceLevel:       0.9,
		ROIProjection:         ptrFloat64(28.77),
		RecommendationVersion: "test",
		CreatedAt:             created,
		UpdatedAt:             created,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndListCandidates", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		comps := []model.Comparable{
			{ID: "b", SoldPrice: ptrFloat64(200_000), Sqft: ptrFloat64(1500)},
			{ID: "a", SoldPrice: ptrFloat64(210_000), Type: model.PropertyTypeCondo},
			{SoldPrice: ptrFloat64(190_000)},
		}
		n, err := s.SaveCandidates(ctx, "p1", comps)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		got, err := s.ListCandidates(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, model.PropertyTypeCondo, got[0].Type)
		assert.Equal(t, "b", got[1].ID)
		assert.Equal(t, "row-3", got[2].ID)

		other, err := s.ListCandidates(ctx, "p2")
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("SaveCandidatesReplacesByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.SaveCandidates(ctx, "p1", []model.Comparable{{ID: "a", SoldPrice: ptrFloat64(1)}})
		require.NoError(t, err)
		_, err = s.SaveCandidates(ctx, "p1", []model.Comparable{{ID: "a", SoldPrice: ptrFloat64(2)}})
		require.NoError(t, err)

		got, err := s.ListCandidates(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 2.0, *got[0].SoldPrice)
	})

	t.Run("SaveAndGetAnalysis", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		res := &model.CompAnalysisResult{
			SubjectID:       "p1",
			ARV:             ptrFloat64(210_000),
			ARVMethod:       model.ARVMethodQualified,
			ConfidenceLevel: model.ConfidenceHigh,
			RejectedCount:   2,
		}
		rec, err := s.SaveAnalysis(ctx, res)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)

		got, err := s.GetAnalysis(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "p1", got.PropertyID)
		require.NotNil(t, got.Result.ARV)
		assert.Equal(t, 210_000.0, *got.Result.ARV)
		assert.Equal(t, 2, got.Result.RejectedCount)
	})

	t.Run("GetAnalysisNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetAnalysis(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("SaveAndGetRecommendation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

		require.NoError(t, s.SaveRecommendation(ctx, testRecommendation("r1", "p1", created)))

		got, err := s.GetRecommendation(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "p1", got.PropertyID)
		assert.Equal(t, 146_000.0, got.BidRange.Moderate)
		require.Len(t, got.RiskWarnings, 1)
		assert.Equal(t, model.SeverityHigh, got.RiskWarnings[0].Severity)
		assert.True(t, created.Equal(got.CreatedAt))
	})

	t.Run("SaveRecommendationKeepsCreatedAt", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		first := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		second := first.Add(2 * time.Hour)

		require.NoError(t, s.SaveRecommendation(ctx, testRecommendation("r1", "p1", first)))
		again := testRecommendation("r1", "p1", second)
		again.BidRange.Moderate = 150_000
		require.NoError(t, s.SaveRecommendation(ctx, again))

		got, err := s.GetRecommendation(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, 150_000.0, got.BidRange.Moderate)
		assert.True(t, first.Equal(got.CreatedAt))
		assert.True(t, second.Equal(got.UpdatedAt))
	})

	t.Run("GetRecommendationNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetRecommendation(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("ListRecommendations", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		for i := range 5 {
			prop := "p1"
			if i%2 == 1 {
				prop = "p2"
			}
			rec := testRecommendation(fmt.Sprintf("r%d", i), prop, base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, s.SaveRecommendation(ctx, rec))
		}

		all, err := s.ListRecommendations(ctx, RecommendationFilter{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "r4", all[0].ID, "newest first")

		p1, err := s.ListRecommendations(ctx, RecommendationFilter{PropertyID: "p1"})
		require.NoError(t, err)
		assert.Len(t, p1, 3)

		page, err := s.ListRecommendations(ctx, RecommendationFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "r3", page[0].ID)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = st.ListRecommendations(context.Background(), RecommendationFilter{})
	assert.NoError(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
