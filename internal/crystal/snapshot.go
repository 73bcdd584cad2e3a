package crystal

import (
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"snowgen/internal/core"
)

// SnapshotVersion is the record version written by Encode. Version 2 records
// predate the per-cell age and are still accepted.
const SnapshotVersion = 3

const minSnapshotVersion = 2

type snapshotRecord struct {
	Version     int                `cbor:"version"`
	Size        int                `cbor:"size"`
	Environment map[string]float64 `cbor:"environment"`
	Defaults    map[string]float64 `cbor:"defaults,omitempty"`
	Iteration   int                `cbor:"iteration"`
	Margin      float64            `cbor:"margin"`
	MaxSteps    int                `cbor:"max_steps"`
	Cells       []cellRecord       `cbor:"cells"`
}

type cellRecord struct {
	X        int     `cbor:"x"`
	Y        int     `cbor:"y"`
	Diffuse  float64 `cbor:"dm"`
	Boundary float64 `cbor:"bm"`
	Crystal  float64 `cbor:"cm"`
	Attached bool    `cbor:"attached"`
	Age      int     `cbor:"age,omitempty"`
}

// decMode lifts the default array limit so large grids decode.
var decMode = func() cbor.DecMode {
	dm, err := cbor.DecOptions{MaxArrayElements: math.MaxInt32}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// DecMode returns the CBOR decoding mode used for lattice data.
func DecMode() cbor.DecMode { return decMode }

// Encode writes the lattice as a versioned CBOR record. Neighbor links and
// boundary flags are not stored; Decode recomputes them.
func (l *Lattice) Encode(w io.Writer) error {
	rec := snapshotRecord{
		Version:     SnapshotVersion,
		Size:        l.size,
		Environment: l.env.Params().Map(),
		Defaults:    l.env.Defaults().Map(),
		Iteration:   l.iteration,
		Margin:      l.margin,
		MaxSteps:    l.maxSteps,
		Cells:       make([]cellRecord, len(l.cells)),
	}
	for i := range l.cells {
		c := &l.cells[i]
		rec.Cells[i] = cellRecord{
			X:        c.X,
			Y:        c.Y,
			Diffuse:  c.DiffusiveMass,
			Boundary: c.BoundaryMass,
			Crystal:  c.CrystalMass,
			Attached: c.Attached,
			Age:      c.Age,
		}
	}
	if err := cbor.NewEncoder(w).Encode(rec); err != nil {
		return fmt.Errorf("encode lattice: %w", err)
	}
	return nil
}

// Decode restores a lattice written by Encode. rnd feeds subsequent noise;
// nil selects a fixed-seed generator. Curve sources are not persisted; see
// AttachCurves.
func Decode(r io.Reader, rnd core.Source) (*Lattice, error) {
	var rec snapshotRecord
	if err := decMode.NewDecoder(r).Decode(&rec); err != nil {
		return nil, wrapError(CodeCorruptSnapshot, "decode lattice", err)
	}
	if rec.Version < minSnapshotVersion || rec.Version > SnapshotVersion {
		return nil, corrupt("unsupported snapshot version %d", rec.Version)
	}
	if rec.Size <= 0 {
		return nil, corrupt("size must be positive, got %d", rec.Size)
	}
	if len(rec.Cells) != rec.Size*rec.Size {
		return nil, corrupt("size %d needs %d cells, found %d", rec.Size, rec.Size*rec.Size, len(rec.Cells))
	}
	if rec.Iteration < 0 {
		return nil, corrupt("negative iteration %d", rec.Iteration)
	}

	params, err := paramsFromMap(rec.Environment)
	if err != nil {
		return nil, wrapError(CodeCorruptSnapshot, "environment", err)
	}
	defaults := params
	if rec.Defaults != nil {
		if defaults, err = paramsFromMap(rec.Defaults); err != nil {
			return nil, wrapError(CodeCorruptSnapshot, "environment defaults", err)
		}
	}
	env := Environment{params: params, defaults: defaults}

	l, err := build(rec.Size, env, rec.Margin, rec.MaxSteps, rnd)
	if err != nil {
		return nil, wrapError(CodeCorruptSnapshot, "rebuild lattice", err)
	}
	l.iteration = rec.Iteration

	seen := make([]bool, len(l.cells))
	for _, cr := range rec.Cells {
		idx, ok := l.Index(cr.X, cr.Y)
		if !ok {
			return nil, corrupt("cell (%d,%d) outside size %d", cr.X, cr.Y, rec.Size)
		}
		if seen[idx] {
			return nil, corrupt("duplicate cell (%d,%d)", cr.X, cr.Y)
		}
		seen[idx] = true
		if badMass(cr.Diffuse) || badMass(cr.Boundary) || badMass(cr.Crystal) {
			return nil, corrupt("cell (%d,%d) has invalid mass", cr.X, cr.Y)
		}
		if cr.Attached && cr.Diffuse != 0 {
			return nil, corrupt("attached cell (%d,%d) holds diffusive mass", cr.X, cr.Y)
		}
		if cr.Age < 0 {
			return nil, corrupt("cell (%d,%d) has negative age", cr.X, cr.Y)
		}
		c := &l.cells[idx]
		c.DiffusiveMass = cr.Diffuse
		c.BoundaryMass = cr.Boundary
		c.CrystalMass = cr.Crystal
		c.Attached = cr.Attached
		c.Age = cr.Age
	}
	l.refreshBoundaries()
	return l, nil
}

func paramsFromMap(m map[string]float64) (Params, error) {
	var p Params
	if len(m) == 0 {
		return p, fmt.Errorf("no parameters")
	}
	for key, value := range m {
		if err := p.Set(key, value); err != nil {
			return p, err
		}
	}
	for _, key := range paramKeys {
		if _, ok := m[key]; !ok {
			return p, fmt.Errorf("missing parameter %q", key)
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func badMass(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

func corrupt(format string, args ...any) error {
	return newError(CodeCorruptSnapshot, fmt.Sprintf(format, args...), nil)
}
