// Package store persists atmos results in SQLite.
//
// Every invocation of the command is a run identified by a random UUID;
// double differences and concentration estimates are stored against it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/gnss/observation"
	"github.com/cwbudde/algo-atmos/spectro/concentration"
)

// ErrUnknownRun reports a run ID with no row in the runs table.
var ErrUnknownRun = errors.New("store: unknown run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	args TEXT NOT NULL DEFAULT '',
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS double_differences (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	receiver_a TEXT NOT NULL,
	receiver_b TEXT NOT NULL,
	reference TEXT NOT NULL,
	other TEXT NOT NULL,
	epoch TEXT NOT NULL,
	observable TEXT NOT NULL,
	value_m DOUBLE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dd_run ON double_differences(run_id);
CREATE TABLE IF NOT EXISTS concentration_estimates (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	molecule TEXT NOT NULL,
	center_nm DOUBLE NOT NULL,
	concentration DOUBLE NOT NULL,
	uncertainty DOUBLE,
	samples INTEGER NOT NULL,
	flags INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_est_run ON concentration_estimates(run_id);
`

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Run is one row of the runs table.
type Run struct {
	ID        uuid.UUID
	Kind      string
	Args      string
	StartedAt time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun inserts a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, kind, args string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (run_id, kind, args, started_at) VALUES (?, ?, ?, ?)",
		id.String(), kind, args, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Runs lists all runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT run_id, kind, args, started_at FROM runs ORDER BY started_at, run_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var id, kind, args, started string
		if err := rows.Scan(&id, &kind, &args, &started); err != nil {
			return nil, err
		}
		r := Run{Kind: kind, Args: args}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run %q: %w", id, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", id, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) checkRun(ctx context.Context, tx *sql.Tx, runID uuid.UUID) error {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", runID.String()).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// SaveDoubleDifferences stores dds under runID in one transaction.
func (s *Store) SaveDoubleDifferences(ctx context.Context, runID uuid.UUID, dds []differencing.DoubleDifference) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.checkRun(ctx, tx, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO double_differences
		(run_id, receiver_a, receiver_b, reference, other, epoch, observable, value_m)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, dd := range dds {
		if _, err := stmt.ExecContext(ctx,
			runID.String(),
			string(dd.Baseline.A), string(dd.Baseline.B),
			string(dd.Satellites.Reference), string(dd.Satellites.Other),
			dd.Epoch.UTC().Format(time.RFC3339Nano),
			dd.Observable.String(),
			dd.Value,
		); err != nil {
			return fmt.Errorf("insert double difference: %w", err)
		}
	}

	return tx.Commit()
}

// DoubleDifferences returns the double differences of runID in insertion
// order.
func (s *Store) DoubleDifferences(ctx context.Context, runID uuid.UUID) ([]differencing.DoubleDifference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT receiver_a, receiver_b, reference, other, epoch, observable, value_m
		FROM double_differences WHERE run_id = ? ORDER BY rowid`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []differencing.DoubleDifference
	for rows.Next() {
		var a, b, ref, other, epoch, obs string
		var dd differencing.DoubleDifference
		if err := rows.Scan(&a, &b, &ref, &other, &epoch, &obs, &dd.Value); err != nil {
			return nil, err
		}
		dd.Baseline = differencing.Baseline{A: observation.ReceiverID(a), B: observation.ReceiverID(b)}
		dd.Satellites = differencing.SatellitePair{
			Reference: observation.TransmitterID(ref),
			Other:     observation.TransmitterID(other),
		}
		if dd.Epoch, err = time.Parse(time.RFC3339Nano, epoch); err != nil {
			return nil, err
		}
		if dd.Observable, err = differencing.ParseObservable(obs); err != nil {
			return nil, err
		}
		out = append(out, dd)
	}
	return out, rows.Err()
}

// SaveEstimates stores estimates under runID in one transaction. An
// unbounded uncertainty is stored as NULL.
func (s *Store) SaveEstimates(ctx context.Context, runID uuid.UUID, estimates []concentration.Estimate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.checkRun(ctx, tx, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO concentration_estimates
		(run_id, molecule, center_nm, concentration, uncertainty, samples, flags)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range estimates {
		unc := sql.NullFloat64{Float64: e.UncertaintyPPM, Valid: !math.IsInf(e.UncertaintyPPM, 0) && !math.IsNaN(e.UncertaintyPPM)}
		if _, err := stmt.ExecContext(ctx,
			runID.String(), e.Molecule, e.CenterWavelength, e.ConcentrationPPM, unc, e.Samples, int64(e.Flags),
		); err != nil {
			return fmt.Errorf("insert estimate: %w", err)
		}
	}

	return tx.Commit()
}

// Estimates returns the estimates of runID in insertion order.
func (s *Store) Estimates(ctx context.Context, runID uuid.UUID) ([]concentration.Estimate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT molecule, center_nm, concentration, uncertainty, samples, flags
		FROM concentration_estimates WHERE run_id = ? ORDER BY rowid`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []concentration.Estimate
	for rows.Next() {
		var e concentration.Estimate
		var unc sql.NullFloat64
		var flags int64
		if err := rows.Scan(&e.Molecule, &e.CenterWavelength, &e.ConcentrationPPM, &unc, &e.Samples, &flags); err != nil {
			return nil, err
		}
		e.UncertaintyPPM = math.Inf(1)
		if unc.Valid {
			e.UncertaintyPPM = unc.Float64
		}
		e.Flags = concentration.Flag(flags)
		out = append(out, e)
	}
	return out, rows.Err()
}
