package core

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Sim defines the minimal contract the viewer needs from a running
// simulation. Step reports errors instead of panicking so a broken run can be
// halted cleanly.
type Sim interface {
	Name() string
	Size() Size
	Step() error
	Cells() []uint8
}
