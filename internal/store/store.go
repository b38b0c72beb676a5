// Package store writes finalized aggregates to SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/epitrack/internal/aggregate"
	"github.com/verte-zerg/epitrack/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for exported runs.
type Store struct {
	db *sql.DB
}

// Run describes one exported aggregate.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Source      string
	CurrentDate string
	Reports     int
	Regions     int
}

// Export is the input to a single export run.
type Export struct {
	Store   *aggregate.Store
	Samples []model.Sample
	// Source names where the snapshots came from, usually the reports directory.
	Source    string
	CreatedAt time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			latest_date TEXT NOT NULL,
			reports INTEGER NOT NULL,
			regions INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS regions (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			population INTEGER NOT NULL,
			life_expectancy REAL NOT NULL,
			first_confirmed TEXT,
			first_death TEXT,
			first_recovery TEXT,
			PRIMARY KEY (run_id, name)
		);`,
		`CREATE TABLE IF NOT EXISTS daily_records (
			run_id TEXT NOT NULL,
			region TEXT NOT NULL,
			date TEXT NOT NULL,
			confirmed INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			recovered INTEGER NOT NULL,
			PRIMARY KEY (run_id, region, date)
		);`,
		`CREATE TABLE IF NOT EXISTS world_samples (
			run_id TEXT NOT NULL,
			date TEXT NOT NULL,
			day INTEGER NOT NULL,
			confirmed INTEGER NOT NULL,
			PRIMARY KEY (run_id, date)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_records_date ON daily_records(run_id, date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Export writes the aggregate in a single transaction and returns the new run ID.
func (s *Store) Export(ctx context.Context, in Export) (id string, err error) {
	if in.Store == nil {
		return "", fmt.Errorf("export: no aggregate")
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	id = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, latest_date, reports, regions) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		in.CreatedAt.UTC().Format(time.RFC3339Nano),
		in.Source,
		in.Store.CurrentDate(),
		len(in.Store.Dates()),
		in.Store.Len(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err = insertRegions(ctx, tx, id, in.Store); err != nil {
		return "", err
	}
	if err = insertSamples(ctx, tx, id, in.Samples); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

func insertRegions(ctx context.Context, tx *sql.Tx, runID string, st *aggregate.Store) error {
	regionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO regions (run_id, name, population, life_expectancy, first_confirmed, first_death, first_recovery)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(regionStmt)
	recordStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily_records (run_id, region, date, confirmed, deaths, recovered) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(recordStmt)

	for _, name := range st.Names() {
		r, _ := st.Region(name)
		if _, err := regionStmt.ExecContext(ctx, runID, r.Name, r.Facts.Population, r.Facts.LifeExpectancy,
			nullDate(r.FirstConfirmed), nullDate(r.FirstDeath), nullDate(r.FirstRecovery)); err != nil {
			return fmt.Errorf("insert region %s: %w", name, err)
		}
		for _, date := range r.Series.Dates() {
			rec, _ := r.Series.Get(date)
			if _, err := recordStmt.ExecContext(ctx, runID, r.Name, date, rec.Confirmed, rec.Deaths, rec.Recovered); err != nil {
				return fmt.Errorf("insert record %s %s: %w", name, date, err)
			}
		}
	}
	return nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, runID string, samples []model.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO world_samples (run_id, date, day, confirmed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer closeStmt(stmt)
	for _, smp := range samples {
		if _, err := stmt.ExecContext(ctx, runID, smp.Date, smp.Day, smp.Confirmed); err != nil {
			return fmt.Errorf("insert sample %s: %w", smp.Date, err)
		}
	}
	return nil
}

// ListRuns returns exported runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, latest_date, reports, regions FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.Source, &run.CurrentDate, &run.Reports, &run.Regions); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		run.CreatedAt = parsed
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RegionTotals returns a run's per-region counts on date, keyed by region.
func (s *Store) RegionTotals(ctx context.Context, runID, date string) (map[string]model.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region, confirmed, deaths, recovered FROM daily_records WHERE run_id = ? AND date = ?`,
		runID, date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]model.DailyRecord{}
	for rows.Next() {
		var name string
		var rec model.DailyRecord
		if err := rows.Scan(&name, &rec.Confirmed, &rec.Deaths, &rec.Recovered); err != nil {
			return nil, err
		}
		result[name] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullDate(date string) sql.NullString {
	return sql.NullString{String: date, Valid: date != ""}
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}
