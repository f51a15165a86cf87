package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/taxdeedflow/comps-cli/internal/db"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts bounds connection retries at startup. Zero uses the
	// resilience default.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	var attempts int
	if poolCfg != nil {
		attempts = poolCfg.ConnectAttempts
	}

	pool, err := resilience.Retry(ctx, resilience.StorePolicy("postgres", "connect", attempts), func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: create pool")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, eris.Wrap(err, "postgres: ping")
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS comp_candidates (
	property_id TEXT NOT NULL,
	comp_id     TEXT NOT NULL,
	data        JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (property_id, comp_id)
);

CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	property_id TEXT NOT NULL,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recommendations (
	id              TEXT PRIMARY KEY,
	property_id     TEXT NOT NULL,
	data            JSONB NOT NULL,
	exceeds_max_bid BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_property_id ON analyses(property_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_property_id ON recommendations(property_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// candidateColumns is the COPY column order for comp_candidates.
var candidateColumns = []string{"property_id", "comp_id", "data", "imported_at"}

// SaveCandidates bulk-loads candidates through a staged COPY and merges them
// on (property_id, comp_id).
func (s *PostgresStore) SaveCandidates(ctx context.Context, propertyID string, comps []model.Comparable) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(comps))
	for i, c := range comps {
		c.ID = candidateID(c, i)
		data, err := json.Marshal(c)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal candidate %s", c.ID)
		}
		rows = append(rows, []any{propertyID, c.ID, data, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "comp_candidates",
		Columns:      candidateColumns,
		ConflictKeys: []string{"property_id", "comp_id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save candidates for %s", propertyID)
	}
	return n, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, propertyID string) ([]model.Comparable, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM comp_candidates WHERE property_id = $1 ORDER BY comp_id`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list candidates %s", propertyID)
	}
	defer rows.Close()

	var out []model.Comparable
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		var c model.Comparable
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list candidates iterate")
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, res *model.CompAnalysisResult) (*AnalysisRecord, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal analysis")
	}
	rec := &AnalysisRecord{
		ID:         uuid.New().String(),
		PropertyID: res.SubjectID,
		Result:     *res,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (id, property_id, result, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.PropertyID, data, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert analysis")
	}
	return rec, nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	var (
		rec  AnalysisRecord
		data []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, property_id, result, created_at FROM analyses WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.PropertyID, &data, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}
	if err := json.Unmarshal(data, &rec.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal analysis")
	}
	return &rec, nil
}

// SaveRecommendation upserts by ID and keeps the first created_at.
func (s *PostgresStore) SaveRecommendation(ctx context.Context, rec *model.BidRecommendation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendation")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendations (id, property_id, data, exceeds_max_bid, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET data = $3, exceeds_max_bid = $4, updated_at = $6`,
		rec.ID, rec.PropertyID, data, rec.ExceedsMaxBid, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save recommendation %s", rec.ID)
}

func (s *PostgresStore) GetRecommendation(ctx context.Context, id string) (*model.BidRecommendation, error) {
	var (
		data             []byte
		created, updated time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM recommendations WHERE id = $1`, id,
	).Scan(&data, &created, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "recommendation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get recommendation %s", id)
	}
	return decodeRecommendation(data, created, updated)
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.BidRecommendation, error) {
	query := `SELECT data, created_at, updated_at FROM recommendations WHERE true`
	args := []any{}
	argIdx := 1

	if filter.PropertyID != "" {
		query += fmt.Sprintf(` AND property_id = $%d`, argIdx)
		args = append(args, filter.PropertyID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC, id`

	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recommendations")
	}
	defer rows.Close()

	var out []model.BidRecommendation
	for rows.Next() {
		var (
			data             []byte
			created, updated time.Time
		)
		if err := rows.Scan(&data, &created, &updated); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recommendation")
		}
		rec, err := decodeRecommendation(data, created, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list recommendations iterate")
}

func decodeRecommendation(data []byte, created, updated time.Time) (*model.BidRecommendation, error) {
	var rec model.BidRecommendation
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal recommendation")
	}
	rec.CreatedAt = created.UTC()
	rec.UpdatedAt = updated.UTC()
	return &rec, nil
}
