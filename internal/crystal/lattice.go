// Package crystal grows a simulated snowflake on a hexagonal lattice embedded
// in a square array.
//
// Each iteration runs three sweeps over the unattached cells: diffusion into
// a staging buffer, then freezing, the attachment decision and melting, then
// attachment and noise. Boundary classification is refreshed between
// iterations.
package crystal

import (
	"fmt"
	"strconv"

	"snowgen/internal/core"
)

// neighborOffsets connect each site to six others. Together with the square
// array this yields hexagonal connectivity: (x±1, y), (x, y±1) and the
// (−1,−1)/(+1,+1) diagonal.
var neighborOffsets = [6][2]int{
	{0, 1},
	{0, -1},
	{-1, 0},
	{1, 0},
	{-1, -1},
	{1, 1},
}

const (
	// DefaultSize is the grid edge length used when none is configured.
	DefaultSize = 200
	// DefaultMargin stops growth once the probed radius passes 85% of the
	// half-grid.
	DefaultMargin = 0.85
	// DefaultSeedOffset is the crystal mass given to the seed cell.
	DefaultSeedOffset = 1.0
)

// Config controls lattice construction.
type Config struct {
	// Size is the edge length of the square grid. The seed sits at
	// (Size/2, Size/2), rounding down for even sizes.
	Size int
	// Environment drives the physics. The zero value selects
	// DefaultEnvironment.
	Environment Environment
	// SeedOffset is the crystal mass of the seed cell.
	SeedOffset float64
	// Margin is the fraction of the half-grid the crystal may reach.
	Margin float64
	// MaxSteps caps the run when positive.
	MaxSteps int
	// Rand feeds the diffusive noise. Nil selects a fixed-seed generator.
	Rand core.Source
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Size:        DefaultSize,
		Environment: DefaultEnvironment(),
		SeedOffset:  DefaultSeedOffset,
		Margin:      DefaultMargin,
	}
}

// Lattice owns every cell of a growth run.
type Lattice struct {
	size      int
	cells     []Cell
	links     []int
	grid      *core.ByteGrid
	env       Environment
	iteration int
	margin    float64
	maxSteps  int
	rnd       core.Source

	// err latches the first fatal error; a failed lattice refuses to step.
	err error
}

// New builds a lattice, links every cell to its neighbors and attaches the
// seed at the center.
func New(cfg Config) (*Lattice, error) {
	if cfg.SeedOffset < 0 {
		return nil, invalidParameter("seed_offset", cfg.SeedOffset)
	}
	l, err := build(cfg.Size, cfg.Environment, cfg.Margin, cfg.MaxSteps, cfg.Rand)
	if err != nil {
		return nil, err
	}
	gamma := l.env.Params().Gamma
	for i := range l.cells {
		l.cells[i].DiffusiveMass = gamma
	}
	cx, cy := l.Center()
	seed := &l.cells[l.grid.Index(cx, cy)]
	seed.DiffusiveMass = 0
	seed.CrystalMass = cfg.SeedOffset
	seed.Attached = true
	l.refreshBoundaries()
	return l, nil
}

// build allocates cells and topology without seeding any mass.
func build(size int, env Environment, margin float64, maxSteps int, rnd core.Source) (*Lattice, error) {
	if size <= 0 {
		return nil, newError(CodeInvalidSize, fmt.Sprintf("size must be positive, got %d", size), map[string]string{
			"size": strconv.Itoa(size),
		})
	}
	if margin <= 0 || margin > 1 {
		return nil, newError(CodeInvalidMargin, fmt.Sprintf("margin must be in (0, 1], got %g", margin), nil)
	}
	if maxSteps < 0 {
		return nil, invalidParameter("max_steps", float64(maxSteps))
	}
	if env.params == (Params{}) && env.curves == nil {
		env = DefaultEnvironment()
	}
	env = env.Advance(0)
	if err := env.Check(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = core.NewRNG(0)
	}
	l := &Lattice{
		size:     size,
		cells:    make([]Cell, size*size),
		grid:     core.NewByteGrid(size, size),
		env:      env,
		margin:   margin,
		maxSteps: maxSteps,
		rnd:      rnd,
	}
	if err := l.link(); err != nil {
		return nil, err
	}
	return l, nil
}

// link computes every cell's neighbor list once. Neighbors are stored as
// indices into l.cells, sharing one backing array.
func (l *Lattice) link() error {
	l.links = make([]int, 0, len(l.cells)*len(neighborOffsets))
	for idx := range l.cells {
		x, y := l.grid.XY(idx)
		c := &l.cells[idx]
		c.X, c.Y = x, y
		start := len(l.links)
		for _, off := range neighborOffsets {
			nx, ny := x+off[0], y+off[1]
			if !l.grid.InBounds(nx, ny) {
				continue
			}
			l.links = append(l.links, l.grid.Index(nx, ny))
		}
		end := len(l.links)
		if start == end {
			return newError(CodeDegenerateTopology, fmt.Sprintf("cell (%d,%d) has no neighbors", x, y), coordMeta(x, y))
		}
		c.neighbors = l.links[start:end:end]
	}
	return nil
}

// refreshBoundaries recomputes each cell's attached-neighbor count and
// boundary flag from the current attachment state.
func (l *Lattice) refreshBoundaries() {
	for i := range l.cells {
		c := &l.cells[i]
		n := 0
		for _, nb := range c.neighbors {
			if l.cells[nb].Attached {
				n++
			}
		}
		c.attachedNeighbors = n
		c.Boundary = !c.Attached && n > 0
	}
}

// Step advances the lattice by one iteration. A fatal error leaves the
// lattice failed; later calls return the same error. Parameters outside their
// domain are reported before any cell changes and are not latched.
func (l *Lattice) Step() error {
	if l.err != nil {
		return l.err
	}
	if err := l.env.Check(); err != nil {
		return err
	}
	if err := l.step(); err != nil {
		l.err = err
		return err
	}
	return nil
}

func (l *Lattice) step() error {
	p := l.env.Params()

	// Diffuse into the staging buffer; no live mass changes here.
	for i := range l.cells {
		c := &l.cells[i]
		if c.Attached {
			continue
		}
		sum := c.DiffusiveMass
		for _, nb := range c.neighbors {
			n := &l.cells[nb]
			if n.Attached {
				sum += c.DiffusiveMass
				continue
			}
			sum += n.DiffusiveMass
		}
		c.stagedDiffusive = sum / float64(len(c.neighbors)+1)
		if c.stagedDiffusive < 0 {
			return massViolation(c, "diffusion")
		}
	}

	// Commit and freeze.
	for i := range l.cells {
		c := &l.cells[i]
		if c.Attached {
			continue
		}
		c.DiffusiveMass = c.stagedDiffusive
		c.attach = false
		if c.Boundary {
			c.freeze(p)
		}
		if c.negativeMass() {
			return massViolation(c, "freezing")
		}
	}

	// Decide attachment against the frozen state of every cell.
	for i := range l.cells {
		c := &l.cells[i]
		if !c.Boundary {
			continue
		}
		neighborhood := c.DiffusiveMass
		for _, nb := range c.neighbors {
			neighborhood += l.cells[nb].DiffusiveMass
		}
		c.attach = Attaches(p, c.attachedNeighbors, c.BoundaryMass, neighborhood)
	}

	// Melt.
	for i := range l.cells {
		c := &l.cells[i]
		if !c.Boundary {
			continue
		}
		c.melt(p)
		if c.negativeMass() {
			return massViolation(c, "melting")
		}
	}

	// Attach and perturb.
	for i := range l.cells {
		c := &l.cells[i]
		if c.Attached {
			continue
		}
		c.Age++
		if c.Boundary {
			if c.attach {
				c.finalize()
			}
			continue
		}
		if l.rnd.Float64() >= 0.5 {
			c.DiffusiveMass *= 1 - p.Sigma
		} else {
			c.DiffusiveMass *= 1 + p.Sigma
		}
		if c.negativeMass() {
			return massViolation(c, "noise")
		}
	}

	l.refreshBoundaries()
	l.iteration++
	l.env = l.env.Advance(l.iteration)
	return nil
}

func massViolation(c *Cell, phase string) error {
	md := coordMeta(c.X, c.Y)
	md["phase"] = phase
	return newError(CodeMassInvariantViolation, fmt.Sprintf(
		"negative mass at (%d,%d) after %s: dm=%g bm=%g cm=%g",
		c.X, c.Y, phase, c.DiffusiveMass, c.BoundaryMass, c.CrystalMass), md)
}

func coordMeta(x, y int) map[string]string {
	return map[string]string{"x": strconv.Itoa(x), "y": strconv.Itoa(y)}
}

// Size returns the grid edge length.
func (l *Lattice) Size() int { return l.size }

// Len returns the number of cells.
func (l *Lattice) Len() int { return len(l.cells) }

// Iteration returns the number of completed steps.
func (l *Lattice) Iteration() int { return l.iteration }

// Margin returns the termination margin.
func (l *Lattice) Margin() float64 { return l.margin }

// MaxSteps returns the step cap, zero when uncapped.
func (l *Lattice) MaxSteps() int { return l.maxSteps }

// SetMaxSteps changes the step cap. Negative values are treated as zero.
func (l *Lattice) SetMaxSteps(n int) {
	if n < 0 {
		n = 0
	}
	l.maxSteps = n
}

// Environment returns the current environment.
func (l *Lattice) Environment() Environment { return l.env }

// AttachCurves drives the environment from src from the current iteration on.
// The environment is left unchanged when src yields invalid values.
func (l *Lattice) AttachCurves(src CurveSource) error {
	next := l.env.WithCurves(src).Advance(l.iteration)
	if err := next.Check(); err != nil {
		return err
	}
	l.env = next
	return nil
}

// Err returns the fatal error that stopped the lattice, if any.
func (l *Lattice) Err() error { return l.err }

// Center returns the seed coordinates.
func (l *Lattice) Center() (int, int) {
	c := l.size / 2
	return c, c
}

// Index returns the arena index of (x, y) and whether it is on the grid.
func (l *Lattice) Index(x, y int) (int, bool) {
	if !l.grid.InBounds(x, y) {
		return 0, false
	}
	return l.grid.Index(x, y), true
}

// At returns a copy of the cell at (x, y).
func (l *Lattice) At(x, y int) (Cell, bool) {
	idx, ok := l.Index(x, y)
	if !ok {
		return Cell{}, false
	}
	return l.cells[idx], true
}

// CellAt returns a copy of the cell at arena index idx.
func (l *Lattice) CellAt(idx int) Cell { return l.cells[idx] }

// Each calls fn with a copy of every cell in arena order.
func (l *Lattice) Each(fn func(idx int, c Cell)) {
	for i := range l.cells {
		fn(i, l.cells[i])
	}
}

// DiffusiveMasses returns a copy of every cell's diffusive mass.
func (l *Lattice) DiffusiveMasses() []float64 {
	return l.collect(func(c *Cell) float64 { return c.DiffusiveMass })
}

// BoundaryMasses returns a copy of every cell's boundary mass.
func (l *Lattice) BoundaryMasses() []float64 {
	return l.collect(func(c *Cell) float64 { return c.BoundaryMass })
}

// CrystalMasses returns a copy of every cell's crystal mass.
func (l *Lattice) CrystalMasses() []float64 {
	return l.collect(func(c *Cell) float64 { return c.CrystalMass })
}

func (l *Lattice) collect(get func(*Cell) float64) []float64 {
	out := make([]float64, len(l.cells))
	for i := range l.cells {
		out[i] = get(&l.cells[i])
	}
	return out
}
