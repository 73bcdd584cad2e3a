//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"snowgen/internal/crystal"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay draws the radius probe and the headroom cutoff over the raw grid
// view. Key 1 toggles the probe, key 2 the cutoff.
type Overlay struct {
	lattice    *crystal.Lattice
	scale      int
	showProbe  bool
	showCutoff bool
	pixel      *ebiten.Image
}

var (
	probeColor  = color.RGBA{R: 255, G: 96, B: 64, A: 255}
	cutoffColor = color.RGBA{R: 255, G: 210, B: 64, A: 160}
)

// NewOverlay constructs an overlay for l drawn at the given pixel scale.
func NewOverlay(l *crystal.Lattice, scale int) *Overlay {
	o := &Overlay{lattice: l, scale: max(scale, 1), showProbe: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// SetLattice points the overlay at a new lattice after a reset.
func (o *Overlay) SetLattice(l *crystal.Lattice) { o.lattice = l }

// Update handles the toggle keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showProbe = !o.showProbe
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showCutoff = !o.showCutoff
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	l := o.lattice
	if l == nil {
		return
	}
	s := float64(o.scale)
	cx, cy := l.Center()
	ox, oy := (float64(cx)+0.5)*s, (float64(cy)+0.5)*s

	if o.showProbe {
		x, y := l.PolarToXY(crystal.ProbeAngle, float64(l.Radius()))
		ex, ey := (float64(x)+0.5)*s, (float64(y)+0.5)*s
		o.drawLine(screen, ox, oy, ex, ey, math.Max(1, s/3), probeColor)
		o.drawPoint(screen, ex, ey, s, probeColor)
	}
	if o.showCutoff {
		r := math.Round(l.Margin()*float64(l.Size())/2) * s
		const segments = 72
		for i := 0; i < segments; i++ {
			a0 := 2 * math.Pi * float64(i) / segments
			a1 := 2 * math.Pi * float64(i+1) / segments
			o.drawLine(screen,
				ox+r*math.Cos(a0), oy-r*math.Sin(a0),
				ox+r*math.Cos(a1), oy-r*math.Sin(a1),
				1, cutoffColor)
		}
	}
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 || thickness <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
