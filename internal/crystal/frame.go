package crystal

import "fmt"

// Frame is the per-cell state the replay log records for one iteration.
type Frame struct {
	Iteration int
	Diffusive []float64
	Crystal   []float64
	// Attached may be nil for frames recorded without it; attachment is then
	// inferred as crystal mass with no vapor.
	Attached []bool
}

// Frame captures the current iteration.
func (l *Lattice) Frame() Frame {
	f := Frame{
		Iteration: l.iteration,
		Diffusive: l.DiffusiveMasses(),
		Crystal:   l.CrystalMasses(),
		Attached:  make([]bool, len(l.cells)),
	}
	for i := range l.cells {
		f.Attached[i] = l.cells[i].Attached
	}
	return f
}

// ApplyFrame overwrites the lattice with a recorded frame so renderers can
// draw historical iterations. Boundary masses are not recorded and are reset
// to zero; boundary flags are recomputed.
func (l *Lattice) ApplyFrame(f Frame) error {
	n := len(l.cells)
	if len(f.Diffusive) != n || len(f.Crystal) != n || (f.Attached != nil && len(f.Attached) != n) {
		return corrupt("frame %d does not match %d cells", f.Iteration, n)
	}
	for i := 0; i < n; i++ {
		if badMass(f.Diffusive[i]) || badMass(f.Crystal[i]) {
			return newError(CodeCorruptSnapshot, fmt.Sprintf("frame %d: invalid mass at index %d", f.Iteration, i), nil)
		}
	}
	for i := range l.cells {
		c := &l.cells[i]
		c.DiffusiveMass = f.Diffusive[i]
		c.CrystalMass = f.Crystal[i]
		c.BoundaryMass = 0
		if f.Attached != nil {
			c.Attached = f.Attached[i]
		} else {
			c.Attached = f.Crystal[i] > 0 && f.Diffusive[i] == 0
		}
	}
	l.iteration = f.Iteration
	l.err = nil
	l.refreshBoundaries()
	return nil
}
