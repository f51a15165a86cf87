package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/taxdeedflow/comps-cli/internal/model"
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS comp_candidates (
	property_id TEXT NOT NULL,
	comp_id     TEXT NOT NULL,
	data        TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (property_id, comp_id)
);

CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL,
	result      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recommendations (
	id              TEXT PRIMARY KEY,
	property_id     TEXT NOT NULL,
	data            TEXT NOT NULL,
	exceeds_max_bid INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_property_id ON analyses(property_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_property_id ON recommendations(property_id);
CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCandidates(ctx context.Context, propertyID string, comps []model.Comparable) (int64, error) {
	if len(comps) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save candidates")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO comp_candidates (property_id, comp_id, data, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (property_id, comp_id) DO UPDATE SET data = excluded.data, imported_at = excluded.imported_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare save candidates")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for i, c := range comps {
		c.ID = candidateID(c, i)
		data, err := json.Marshal(c)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal candidate %s", c.ID)
		}
		if _, err := stmt.ExecContext(ctx, propertyID, c.ID, string(data), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert candidate %s", c.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit candidates")
	}
	return int64(len(comps)), nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, propertyID string) ([]model.Comparable, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM comp_candidates WHERE property_id = ? ORDER BY comp_id`,
		propertyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list candidates %s", propertyID)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Comparable
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		var c model.Comparable
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list candidates iterate")
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, res *model.CompAnalysisResult) (*AnalysisRecord, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal analysis")
	}
	rec := &AnalysisRecord{
		ID:         uuid.New().String(),
		PropertyID: res.SubjectID,
		Result:     *res,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, property_id, result, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.PropertyID, string(data), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert analysis")
	}
	return rec, nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	var (
		rec  AnalysisRecord
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, property_id, result, created_at FROM analyses WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.PropertyID, &data, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", id)
	}
	if err := json.Unmarshal([]byte(data), &rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal analysis")
	}
	return &rec, nil
}

// SaveRecommendation upserts by ID. Recommendation IDs are derived from their
// input, so recalculating the same input refreshes the row and keeps the
// original created_at.
func (s *SQLiteStore) SaveRecommendation(ctx context.Context, rec *model.BidRecommendation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendation")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommendations (id, property_id, data, exceeds_max_bid, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, exceeds_max_bid = excluded.exceeds_max_bid,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.PropertyID, string(data), rec.ExceedsMaxBid, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save recommendation %s", rec.ID)
}

func (s *SQLiteStore) GetRecommendation(ctx context.Context, id string) (*model.BidRecommendation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, created_at, updated_at FROM recommendations WHERE id = ?`, id,
	)
	rec, err := scanRecommendation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "recommendation %s", id)
	}
	return rec, err
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, filter RecommendationFilter) ([]model.BidRecommendation, error) {
	query := `SELECT data, created_at, updated_at FROM recommendations`
	var args []any
	if filter.PropertyID != "" {
		query += ` WHERE property_id = ?`
		args = append(args, filter.PropertyID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, listLimit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recommendations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.BidRecommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list recommendations iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRecommendation(row scannable) (*model.BidRecommendation, error) {
	var (
		data             string
		created, updated time.Time
		rec              model.BidRecommendation
	)
	if err := row.Scan(&data, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan recommendation")
	}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal recommendation")
	}
	rec.CreatedAt = created.UTC()
	rec.UpdatedAt = updated.UTC()
	return &rec, nil
}
