// Package persistence provides SQLite-based storage for run outputs: scalar
// summaries, per-step norm timelines, and ensemble aggregates. Records are
// write-once reporting artifacts — nothing here is ever loaded back into a
// universe, so simulation state itself is never persisted or resumed.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for run result storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		scenario TEXT NOT NULL,
		dim INTEGER NOT NULL,
		model TEXT NOT NULL,
		system TEXT NOT NULL,
		steps INTEGER NOT NULL,
		max_levels INTEGER NOT NULL,
		t_past INTEGER NOT NULL,
		t_future INTEGER NOT NULL,
		strength REAL NOT NULL,
		seed INTEGER NOT NULL,
		pre_norm REAL NOT NULL,
		post_norm REAL NOT NULL,
		delta_norm REAL NOT NULL,
		infinite_norm REAL NOT NULL,
		observer_level INTEGER NOT NULL,
		observer_norm REAL NOT NULL,
		energy_before REAL NOT NULL,
		energy_after REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS timelines (
		run_id TEXT NOT NULL,
		t INTEGER NOT NULL,
		norm REAL NOT NULL,
		PRIMARY KEY (run_id, t)
	);

	CREATE TABLE IF NOT EXISTS ensembles (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL DEFAULT (datetime('now')),
		scenario TEXT NOT NULL,
		dim INTEGER NOT NULL,
		model TEXT NOT NULL,
		system TEXT NOT NULL,
		steps INTEGER NOT NULL,
		max_levels INTEGER NOT NULL,
		t_past INTEGER NOT NULL,
		t_future INTEGER NOT NULL,
		strength REAL NOT NULL,
		count INTEGER NOT NULL,
		mean_delta_norm REAL NOT NULL,
		mean_infinite_norm REAL NOT NULL,
		var_infinite_norm REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_timelines_run ON timelines(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRecord is one row in the runs table.
type RunRecord struct {
	ID            string  `db:"id" json:"id"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
	Scenario      string  `db:"scenario" json:"scenario"`
	Dim           int     `db:"dim" json:"dim"`
	Model         string  `db:"model" json:"model"`
	System        string  `db:"system" json:"system"`
	Steps         int     `db:"steps" json:"steps"`
	MaxLevels     int     `db:"max_levels" json:"max_levels"`
	TPast         int     `db:"t_past" json:"t_past"`
	TFuture       int     `db:"t_future" json:"t_future"`
	Strength      float64 `db:"strength" json:"strength"`
	Seed          int64   `db:"seed" json:"seed"`
	PreNorm       float64 `db:"pre_norm" json:"pre_norm"`
	PostNorm      float64 `db:"post_norm" json:"post_norm"`
	DeltaNorm     float64 `db:"delta_norm" json:"delta_norm"`
	InfiniteNorm  float64 `db:"infinite_norm" json:"infinite_norm"`
	ObserverLevel int     `db:"observer_level" json:"observer_level"`
	ObserverNorm  float64 `db:"observer_norm" json:"observer_norm"`
	EnergyBefore  float64 `db:"energy_before" json:"energy_before"`
	EnergyAfter   float64 `db:"energy_after" json:"energy_after"`
}

// EnsembleRecord is one row in the ensembles table.
type EnsembleRecord struct {
	ID               string  `db:"id" json:"id"`
	CreatedAt        string  `db:"created_at" json:"created_at"`
	Scenario         string  `db:"scenario" json:"scenario"`
	Dim              int     `db:"dim" json:"dim"`
	Model            string  `db:"model" json:"model"`
	System           string  `db:"system" json:"system"`
	Steps            int     `db:"steps" json:"steps"`
	MaxLevels        int     `db:"max_levels" json:"max_levels"`
	TPast            int     `db:"t_past" json:"t_past"`
	TFuture          int     `db:"t_future" json:"t_future"`
	Strength         float64 `db:"strength" json:"strength"`
	Count            int     `db:"count" json:"count"`
	MeanDeltaNorm    float64 `db:"mean_delta_norm" json:"mean_delta_norm"`
	MeanInfiniteNorm float64 `db:"mean_infinite_norm" json:"mean_infinite_norm"`
	VarInfiniteNorm  float64 `db:"var_infinite_norm" json:"var_infinite_norm"`
}

// SaveRun writes a run record plus its norm timeline in one transaction.
func (db *DB) SaveRun(rec RunRecord, timeline []float64) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, scenario, dim, model, system, steps, max_levels, t_past, t_future,
		 strength, seed, pre_norm, post_norm, delta_norm, infinite_norm,
		 observer_level, observer_norm, energy_before, energy_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Scenario, rec.Dim, rec.Model, rec.System, rec.Steps,
		rec.MaxLevels, rec.TPast, rec.TFuture, rec.Strength, rec.Seed,
		rec.PreNorm, rec.PostNorm, rec.DeltaNorm, rec.InfiniteNorm,
		rec.ObserverLevel, rec.ObserverNorm, rec.EnergyBefore, rec.EnergyAfter,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}

	stmt, err := tx.Preparex("INSERT INTO timelines (run_id, t, norm) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for t, norm := range timeline {
		if _, err := stmt.Exec(rec.ID, t, norm); err != nil {
			return fmt.Errorf("insert timeline point %d: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run saved", "id", rec.ID, "scenario", rec.Scenario, "timeline_points", len(timeline))
	return nil
}

// SaveEnsemble writes an ensemble record.
func (db *DB) SaveEnsemble(rec EnsembleRecord) error {
	_, err := db.conn.Exec(`INSERT INTO ensembles
		(id, scenario, dim, model, system, steps, max_levels, t_past, t_future,
		 strength, count, mean_delta_norm, mean_infinite_norm, var_infinite_norm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Scenario, rec.Dim, rec.Model, rec.System, rec.Steps,
		rec.MaxLevels, rec.TPast, rec.TFuture, rec.Strength, rec.Count,
		rec.MeanDeltaNorm, rec.MeanInfiniteNorm, rec.VarInfiniteNorm,
	)
	if err != nil {
		return fmt.Errorf("insert ensemble %s: %w", rec.ID, err)
	}
	slog.Info("ensemble saved", "id", rec.ID, "scenario", rec.Scenario, "count", rec.Count)
	return nil
}

// RecentRuns returns the most recent N run records.
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	var recs []RunRecord
	err := db.conn.Select(&recs,
		"SELECT * FROM runs ORDER BY created_at DESC LIMIT ?", limit)
	return recs, err
}

// Timeline returns the norm timeline for a run in time order.
func (db *DB) Timeline(runID string) ([]float64, error) {
	var norms []float64
	err := db.conn.Select(&norms,
		"SELECT norm FROM timelines WHERE run_id = ? ORDER BY t", runID)
	return norms, err
}
