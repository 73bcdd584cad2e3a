//go:build !ebiten

package ui

import "snowgen/internal/crystal"

// Overlay is a no-op placeholder used when the ebiten build tag is absent.
type Overlay struct{}

// NewOverlay constructs a stub overlay.
func NewOverlay(*crystal.Lattice, int) *Overlay { return &Overlay{} }

// SetLattice is a no-op in headless builds.
func (o *Overlay) SetLattice(*crystal.Lattice) {}

// Update is a no-op in headless builds.
func (o *Overlay) Update() {}

// Draw is a no-op placeholder.
func (o *Overlay) Draw(any) {}
