package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/pauljones0/contest-tracker/internal/models"
)

const createContestsTable = `
CREATE TABLE IF NOT EXISTS contests (
	id TEXT PRIMARY KEY,         -- hex sha256 of (name, platform)
	name TEXT NOT NULL,
	platform TEXT NOT NULL,
	url TEXT NOT NULL,
	start_time INTEGER,          -- unix nanoseconds, NULL when unknown
	duration TEXT NOT NULL,
	status TEXT NOT NULL,
	solution_url TEXT,               -- NULL when no video was found
	last_updated INTEGER NOT NULL
)`

// SQLiteStore is a single-file store for running without Google Cloud.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path. ":memory:" is accepted.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createContestsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create contests table: %w", err)
	}
	slog.Debug("SQLite store initialized", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ReplaceContests upserts batch and deletes rows absent from it in one transaction.
func (s *SQLiteStore) ReplaceContests(ctx context.Context, batch []models.ContestRecord) (err error) {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := s.ids(ctx, tx)
	if err != nil {
		return err
	}
	stale := staleKeys(existing, batch)

	for _, c := range batch {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO contests (id, name, platform, url, start_time, duration, status, solution_url, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				url = excluded.url,
				start_time = excluded.start_time,
				duration = excluded.duration,
				status = excluded.status,
				solution_url = excluded.solution_url,
				last_updated = excluded.last_updated`,
			c.Key(), c.Name, c.Platform, c.URL, nullableUnixNano(c.StartTime), c.Duration, string(c.Status), c.SolutionURL, c.LastUpdated.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to upsert contest %q: %w", c.Name, err)
		}
	}

	for _, id := range stale {
		if _, err = tx.ExecContext(ctx, "DELETE FROM contests WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete stale contest %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contest replace: %w", err)
	}
	slog.Info("Replaced contest snapshot", "backend", "sqlite", "upserted", len(batch), "deleted", len(stale))
	return nil
}

func (s *SQLiteStore) ids(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM contests")
	if err != nil {
		return nil, fmt.Errorf("failed to list existing contests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan contest id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListContests returns every stored contest ordered by start time.
func (s *SQLiteStore) ListContests(ctx context.Context) ([]models.ContestRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, platform, url, start_time, duration, status, solution_url, last_updated FROM contests")
	if err != nil {
		return nil, fmt.Errorf("failed to query contests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contests := []models.ContestRecord{}
	for rows.Next() {
		var (
			c           models.ContestRecord
			status      string
			startTime   sql.NullInt64
			solutionURL sql.NullString
			lastUpdated int64
		)
		if err := rows.Scan(&c.Name, &c.Platform, &c.URL, &startTime, &c.Duration, &status, &solutionURL, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan contest row: %w", err)
		}
		c.Status = models.ContestStatus(status)
		if startTime.Valid {
			t := time.Unix(0, startTime.Int64).UTC()
			c.StartTime = &t
		}
		if solutionURL.Valid {
			c.SolutionURL = &solutionURL.String
		}
		c.LastUpdated = time.Unix(0, lastUpdated).UTC()
		contests = append(contests, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contest rows: %w", err)
	}

	models.SortByStartTime(contests)
	return contests, nil
}

func nullableUnixNano(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
