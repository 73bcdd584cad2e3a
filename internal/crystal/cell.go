package crystal

// State classifies a cell for rendering and diagnostics.
type State uint8

const (
	// StateFree is a cell with no attached neighbor.
	StateFree State = iota
	// StateBoundary is an unattached cell next to the crystal.
	StateBoundary
	// StateAttached is part of the crystal. It is terminal.
	StateAttached
)

// Cell is one lattice site. Cells are owned by their Lattice; callers receive
// copies.
type Cell struct {
	X, Y int

	DiffusiveMass float64
	BoundaryMass  float64
	CrystalMass   float64

	// Attached only ever goes from false to true.
	Attached bool
	// Boundary is derived: not attached and at least one attached neighbor.
	Boundary bool
	// Age counts the iterations the cell spent unattached.
	Age int

	// neighbors index into the owning lattice's cell arena.
	neighbors         []int
	attachedNeighbors int

	stagedDiffusive float64
	attach          bool
}

// State returns the cell's classification.
func (c Cell) State() State {
	switch {
	case c.Attached:
		return StateAttached
	case c.Boundary:
		return StateBoundary
	}
	return StateFree
}

// Neighbors returns the arena indices of the cell's neighbors.
func (c Cell) Neighbors() []int {
	return append([]int(nil), c.neighbors...)
}

// AttachedNeighbors is the attached neighbor count captured at the last
// boundary refresh.
func (c Cell) AttachedNeighbors() int { return c.attachedNeighbors }

// Mass returns the sum of the cell's three mass pools.
func (c Cell) Mass() float64 {
	return c.DiffusiveMass + c.BoundaryMass + c.CrystalMass
}

func (c *Cell) negativeMass() bool {
	return c.DiffusiveMass < 0 || c.BoundaryMass < 0 || c.CrystalMass < 0
}

// freeze moves a boundary cell's diffusive mass into its boundary and crystal
// pools.
func (c *Cell) freeze(p Params) {
	c.BoundaryMass += (1 - p.Kappa) * c.DiffusiveMass
	c.CrystalMass += p.Kappa * c.DiffusiveMass
	c.DiffusiveMass = 0
}

// melt returns a share of boundary and crystal mass to the vapor.
func (c *Cell) melt(p Params) {
	c.DiffusiveMass += p.Mu*c.BoundaryMass + p.Upsilon*c.CrystalMass
	c.BoundaryMass *= 1 - p.Mu
	c.CrystalMass *= 1 - p.Upsilon
}

// finalize attaches the cell. Leftover vapor joins the crystal so an attached
// cell never carries diffusive mass.
func (c *Cell) finalize() {
	c.CrystalMass += c.BoundaryMass + c.DiffusiveMass
	c.BoundaryMass = 0
	c.DiffusiveMass = 0
	c.Attached = true
	c.Boundary = false
}

// Attaches evaluates the attachment rule for a boundary cell with n attached
// neighbors, boundary mass bm and neighborhood diffusive mass sum.
func Attaches(p Params, n int, bm, neighborhood float64) bool {
	switch {
	case n <= 2:
		return bm > p.Beta
	case n == 3:
		return bm >= 1 || (neighborhood < p.Theta && bm >= p.Alpha)
	}
	return true
}
