// Package manifest records generated ensembles in a SQLite database: one row
// per written input file and one per applied sweep value.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/saltyorg/rtsweep/internal/ensemble"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sweeps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template TEXT NOT NULL,
		seed INTEGER NOT NULL,
		runs INTEGER NOT NULL,
		stages INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		sweep_id INTEGER NOT NULL REFERENCES sweeps(id),
		run INTEGER NOT NULL,
		stage INTEGER NOT NULL,
		dir TEXT NOT NULL,
		location TEXT NOT NULL,
		edits INTEGER NOT NULL,
		PRIMARY KEY (sweep_id, run, stage)
	)`,
	`CREATE TABLE IF NOT EXISTS run_values (
		sweep_id INTEGER NOT NULL REFERENCES sweeps(id),
		run INTEGER NOT NULL,
		stage INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		path TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (sweep_id, run, stage, seq)
	)`,
}

// Store is an open manifest database.
type Store struct {
	db *sql.DB
}

// Sweep describes one generate invocation.
type Sweep struct {
	ID       int64
	Template string
	Seed     uint64
	Runs     int
	// Stages is 0 outside a restart chain.
	Stages    int
	CreatedAt time.Time
}

// Record is one written input file and the values applied to it.
type Record struct {
	Run      int
	Stage    int
	Dir      string
	Location string
	Edits    int
	Values   []ensemble.Assignment
}

// Open opens or creates the manifest at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create manifest tables: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSweep inserts a sweep and returns its id.
func (s *Store) BeginSweep(ctx context.Context, sw Sweep) (int64, error) {
	if sw.CreatedAt.IsZero() {
		sw.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sweeps (template, seed, runs, stages, created_at) VALUES (?, ?, ?, ?, ?)`,
		sw.Template, int64(sw.Seed), sw.Runs, sw.Stages, sw.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert sweep: %w", err)
	}
	return res.LastInsertId()
}

// Record stores records for a sweep in one transaction.
func (s *Store) Record(ctx context.Context, sweepID int64, records []Record) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (sweep_id, run, stage, dir, location, edits) VALUES (?, ?, ?, ?, ?, ?)`,
			sweepID, r.Run, r.Stage, r.Dir, r.Location, r.Edits); err != nil {
			return fmt.Errorf("insert run %d stage %d: %w", r.Run, r.Stage, err)
		}
		for i, v := range r.Values {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_values (sweep_id, run, stage, seq, path, value) VALUES (?, ?, ?, ?, ?, ?)`,
				sweepID, r.Run, r.Stage, i, v.Path, v.Value); err != nil {
				return fmt.Errorf("insert value %s for run %d: %w", v.Path, r.Run, err)
			}
		}
	}
	return tx.Commit()
}

// LatestSweep returns the most recent sweep.
func (s *Store) LatestSweep(ctx context.Context) (Sweep, error) {
	var sw Sweep
	var seed int64
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, template, seed, runs, stages, created_at FROM sweeps ORDER BY id DESC LIMIT 1`).
		Scan(&sw.ID, &sw.Template, &seed, &sw.Runs, &sw.Stages, &created)
	if err != nil {
		return Sweep{}, fmt.Errorf("select sweep: %w", err)
	}
	sw.Seed = uint64(seed)
	if sw.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return Sweep{}, fmt.Errorf("parse created_at: %w", err)
	}
	return sw, nil
}

// Records returns a sweep's records ordered by run and stage.
func (s *Store) Records(ctx context.Context, sweepID int64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run, stage, dir, location, edits FROM runs WHERE sweep_id = ? ORDER BY run, stage`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Run, &r.Stage, &r.Dir, &r.Location, &r.Edits); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].Values, err = s.values(ctx, sweepID, records[i].Run, records[i].Stage); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Store) values(ctx context.Context, sweepID int64, run, stage int) ([]ensemble.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, value FROM run_values WHERE sweep_id = ? AND run = ? AND stage = ? ORDER BY seq`,
		sweepID, run, stage)
	if err != nil {
		return nil, fmt.Errorf("select values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ensemble.Assignment
	for rows.Next() {
		var a ensemble.Assignment
		if err := rows.Scan(&a.Path, &a.Value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
