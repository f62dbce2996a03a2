// Package runstore persists voxelization runs in SQLite.
//
// Each run records its source, parameters and drop statistics; the encoded
// grid is kept in a side table so listing runs never loads voxel payloads.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/voxelize/internal/monitoring"
	"github.com/banshee-data/voxelize/internal/voxel"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("voxel run not found")

// Store wraps the run database.
type Store struct {
	*sql.DB
}

// Run is one recorded voxelization call.
type Run struct {
	ID        string
	Source    string
	CreatedAt time.Time
	Params    voxel.Params
	Stats     voxel.Stats
	Voxels    int
	Duration  time.Duration
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("opened voxel run store at %s", path)
	return s, nil
}

// Insert stores r and, when grid is non-nil, its encoded grid. An empty ID
// is replaced by a new UUID and a zero CreatedAt by the current time.
func (s *Store) Insert(ctx context.Context, r *Run, grid []byte, valueBytes int) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	paramsJSON, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO voxel_runs (
			run_id, source, created_unix_nanos, params_json,
			input_points, retained_points, out_of_range, stored_points,
			dropped_voxel_capacity, dropped_point_capacity, rejected_cells,
			voxel_count, duration_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Source, r.CreatedAt.UnixNano(), string(paramsJSON),
		r.Stats.InputPoints, r.Stats.RetainedPoints, r.Stats.OutOfRange, r.Stats.StoredPoints,
		r.Stats.DroppedVoxelCapacity, r.Stats.DroppedPointCapacity, int64(r.Stats.RejectedCells),
		r.Voxels, r.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if grid != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO voxel_run_grids (run_id, value_bytes, grid_blob) VALUES (?, ?, ?)`,
			r.ID, valueBytes, grid)
		if err != nil {
			return fmt.Errorf("failed to insert grid: %w", err)
		}
	}
	return tx.Commit()
}

const runColumns = `run_id, source, created_unix_nanos, params_json,
	input_points, retained_points, out_of_range, stored_points,
	dropped_voxel_capacity, dropped_point_capacity, rejected_cells,
	voxel_count, duration_nanos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		created    int64
		paramsJSON string
		rejected   int64
		duration   int64
	)
	err := row.Scan(&r.ID, &r.Source, &created, &paramsJSON,
		&r.Stats.InputPoints, &r.Stats.RetainedPoints, &r.Stats.OutOfRange, &r.Stats.StoredPoints,
		&r.Stats.DroppedVoxelCapacity, &r.Stats.DroppedPointCapacity, &rejected,
		&r.Voxels, &duration)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return nil, fmt.Errorf("run %s: failed to decode params: %w", r.ID, err)
	}
	r.CreatedAt = time.Unix(0, created)
	r.Stats.RejectedCells = uint64(rejected)
	r.Duration = time.Duration(duration)
	return &r, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM voxel_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// List returns up to limit runs, newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.QueryContext(ctx,
		`SELECT `+runColumns+` FROM voxel_runs ORDER BY created_unix_nanos DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Grid returns the encoded grid blob of a run and the value width it was
// written with (4 or 8 bytes).
func (s *Store) Grid(ctx context.Context, id string) ([]byte, int, error) {
	var (
		blob       []byte
		valueBytes int
	)
	err := s.QueryRowContext(ctx,
		`SELECT grid_blob, value_bytes FROM voxel_run_grids WHERE run_id = ?`, id).Scan(&blob, &valueBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w: no grid for %s", ErrRunNotFound, id)
	}
	return blob, valueBytes, err
}

// Delete removes a run and its grid.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM voxel_run_grids WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM voxel_runs WHERE run_id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}
