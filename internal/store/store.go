// Package store persists imported comparable candidates, analysis results,
// and bid recommendations in SQLite or Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/model"
)

// ErrNotFound is returned (wrapped) when a lookup by ID matches nothing.
var ErrNotFound = eris.New("store: not found")

// RecommendationFilter specifies criteria for listing recommendations.
type RecommendationFilter struct {
	PropertyID string `json:"property_id,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// AnalysisRecord is a saved comparables analysis.
type AnalysisRecord struct {
	ID         string                   `json:"id"`
	PropertyID string                   `json:"property_id"`
	Result     model.CompAnalysisResult `json:"result"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Store defines the persistence interface for the valuation service.
type Store interface {
	// Candidates
	SaveCandidates(ctx context.Context, propertyID string, comps []model.Comparable) (int64, error)
	ListCandidates(ctx context.Context, propertyID string) ([]model.Comparable, error)

	// Analyses
	SaveAnalysis(ctx context.Context, res *model.CompAnalysisResult) (*AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)

	// Recommendations
	SaveRecommendation(ctx context.Context, rec *model.BidRecommendation) error
	GetRecommendation(ctx context.Context, id string) (*model.BidRecommendation, error)
	ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.BidRecommendation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open creates the configured store and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			ConnectAttempts: cfg.ConnectAttempts,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// candidateID returns the comp's own ID or a stable positional fallback.
func candidateID(c model.Comparable, i int) string {
	if c.ID != "" {
		return c.ID
	}
	return fmt.Sprintf("row-%d", i+1)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
