// Package replay keeps a per-iteration history of a growth run in SQLite so
// any past iteration can be redrawn.
package replay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"snowgen/internal/crystal"
	"snowgen/internal/replay/migrations"
)

// ErrFrameNotFound is returned for an iteration that was never recorded.
var ErrFrameNotFound = errors.New("replay: frame not found")

// Store is a SQLite-backed frame log. Recorded frames are buffered until
// Flush; a Store is not safe for concurrent use.
type Store struct {
	sqlDB   *sql.DB
	pending []crystal.Frame
}

// Open opens the log at path, creating it and its schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("replay path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("ping sqlite db: %w", err), sqlDB.Close())
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		return nil, multierr.Append(fmt.Errorf("run migrations: %w", err), sqlDB.Close())
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Record buffers a frame for the next Flush.
func (s *Store) Record(f crystal.Frame) {
	s.pending = append(s.pending, f)
}

// RecordLattice buffers the lattice's current frame. It has the shape of a
// crystal.GrowOptions step hook.
func (s *Store) RecordLattice(l *crystal.Lattice) error {
	s.Record(l.Frame())
	return nil
}

// Pending is the number of buffered frames.
func (s *Store) Pending() int { return len(s.pending) }

// Flush writes buffered frames in one transaction. Re-recording an iteration
// replaces it.
func (s *Store) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO frames (iteration, diffusive, crystal, attached, recorded_at)
VALUES (?, ?, ?, ?, ?)
`)
	if err != nil {
		return multierr.Append(fmt.Errorf("prepare flush: %w", err), tx.Rollback())
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	for _, f := range s.pending {
		diffusive, err := cbor.Marshal(f.Diffusive)
		if err != nil {
			return multierr.Append(fmt.Errorf("encode frame %d: %w", f.Iteration, err), tx.Rollback())
		}
		crystalMass, err := cbor.Marshal(f.Crystal)
		if err != nil {
			return multierr.Append(fmt.Errorf("encode frame %d: %w", f.Iteration, err), tx.Rollback())
		}
		var attached any
		if f.Attached != nil {
			attached = packBits(f.Attached)
		}
		if _, err := stmt.ExecContext(ctx, f.Iteration, diffusive, crystalMass, attached, now); err != nil {
			return multierr.Append(fmt.Errorf("insert frame %d: %w", f.Iteration, err), tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Iterations lists the recorded iterations in ascending order.
func (s *Store) Iterations(ctx context.Context) ([]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT iteration FROM frames ORDER BY iteration`)
	if err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	defer rows.Close()

	var its []int
	for rows.Next() {
		var it int
		if err := rows.Scan(&it); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		its = append(its, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate iterations: %w", err)
	}
	return its, nil
}

// Frame loads one recorded iteration.
func (s *Store) Frame(ctx context.Context, iteration int) (crystal.Frame, error) {
	var diffusive, crystalMass, attached []byte
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT diffusive, crystal, attached FROM frames WHERE iteration = ?
`, iteration).Scan(&diffusive, &crystalMass, &attached)
	if errors.Is(err, sql.ErrNoRows) {
		return crystal.Frame{}, fmt.Errorf("iteration %d: %w", iteration, ErrFrameNotFound)
	}
	if err != nil {
		return crystal.Frame{}, fmt.Errorf("load frame %d: %w", iteration, err)
	}

	f := crystal.Frame{Iteration: iteration}
	dm := crystal.DecMode()
	if err := dm.Unmarshal(diffusive, &f.Diffusive); err != nil {
		return crystal.Frame{}, fmt.Errorf("decode frame %d diffusive: %w", iteration, err)
	}
	if err := dm.Unmarshal(crystalMass, &f.Crystal); err != nil {
		return crystal.Frame{}, fmt.Errorf("decode frame %d crystal: %w", iteration, err)
	}
	if attached != nil {
		f.Attached = unpackBits(attached, len(f.Crystal))
	}
	return f, nil
}

// Restore loads an iteration into l.
func (s *Store) Restore(ctx context.Context, l *crystal.Lattice, iteration int) error {
	f, err := s.Frame(ctx, iteration)
	if err != nil {
		return err
	}
	return l.ApplyFrame(f)
}

// Close flushes buffered frames and releases the database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.Flush(context.Background())
	return multierr.Append(err, s.sqlDB.Close())
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

func unpackBits(data []byte, n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		if i/8 < len(data) {
			bits[i] = data[i/8]&(1<<(i%8)) != 0
		}
	}
	return bits
}
