//go:build ebiten

package app

import (
	"snowgen/internal/core"
	"snowgen/internal/crystal"
	"snowgen/internal/render"
	"snowgen/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// HUDWidth is the width of the parameter panel in pixels.
const HUDWidth = 280

// Factory builds a fresh lattice for resets.
type Factory func() (*crystal.Lattice, error)

// Game adapts a growing lattice to the ebiten.Game interface.
type Game struct {
	lattice *crystal.Lattice
	sim     core.Sim
	factory Factory

	painter *render.GridPainter
	hud     *ui.HUD
	overlay *ui.Overlay

	schemes []render.Scheme
	scheme  int
	opts    render.Options

	scale    int
	paused   bool
	tickOnce bool
}

// New constructs a Game for l. factory is used by the reset key and may be
// nil.
func New(l *crystal.Lattice, factory Factory, scale int) *Game {
	if scale <= 0 {
		scale = 1
	}
	sim := l.AsSim()
	return &Game{
		lattice: l,
		sim:     sim,
		factory: factory,
		painter: render.NewGridPainter(l.Size(), l.Size()),
		hud:     ui.NewHUD(sim, HUDWidth),
		overlay: ui.NewOverlay(l, scale),
		schemes: []render.Scheme{render.DefaultPalette, render.Grayscale{}, render.BlackWhite{Boundary: true}, render.Age{}},
		scale:   scale,
	}
}

// Reset replaces the lattice with a fresh one from the factory.
func (g *Game) Reset() error {
	if g.factory == nil {
		return nil
	}
	l, err := g.factory()
	if err != nil {
		return err
	}
	g.lattice = l
	g.sim = l.AsSim()
	g.hud = ui.NewHUD(g.sim, HUDWidth)
	g.overlay.SetLattice(l)
	g.tickOnce = false
	return nil
}

// Update handles per-frame input and advances the lattice while it has
// headroom. A fatal lattice error ends the game.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.scheme = (g.scheme + 1) % len(g.schemes)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyU) {
		g.opts.Unshear = !g.opts.Unshear
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.Reset(); err != nil {
			return err
		}
	}

	g.overlay.Update()
	g.hud.Update(g.viewWidth())

	if (!g.paused || g.tickOnce) && g.lattice.HasHeadroom() {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	g.tickOnce = false
	return nil
}

// Draw renders the lattice, the overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	img := render.Image(g.lattice, g.schemes[g.scheme], g.opts)
	g.painter.Blit(screen, img, g.scale)
	if !g.opts.Unshear {
		g.overlay.Draw(screen)
	}
	g.hud.Draw(screen, g.viewWidth(), g.lattice.Size()*g.scale)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.viewWidth() + g.hud.Width(), g.lattice.Size() * g.scale
}

func (g *Game) viewWidth() int { return g.lattice.Size() * g.scale }
