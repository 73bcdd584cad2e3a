package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"snowgen/internal/crystal"
)

// Scheme colors one cell. iteration is the lattice iteration at render time.
type Scheme interface {
	Color(c crystal.Cell, iteration int) color.RGBA
}

var (
	black = color.RGBA{A: 0xff}
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Grayscale shades attached cells by crystal mass and the rest by vapor.
type Grayscale struct{}

func (Grayscale) Color(c crystal.Cell, _ int) color.RGBA {
	mass := c.DiffusiveMass
	if c.Attached {
		mass = c.CrystalMass
	}
	v := uint8(min(255, int(200*mass)))
	return color.RGBA{R: v, G: v, B: v, A: 0xff}
}

// BlackWhite paints the crystal white, and the boundary too when Boundary is
// set.
type BlackWhite struct {
	Boundary bool
}

func (s BlackWhite) Color(c crystal.Cell, _ int) color.RGBA {
	if c.Attached || (s.Boundary && c.Boundary) {
		return white
	}
	return black
}

// Age picks a hue from how long a cell stayed unattached relative to the
// run length.
type Age struct{}

func (Age) Color(c crystal.Cell, iteration int) color.RGBA {
	h := 0.0
	if iteration > 0 {
		h = float64(c.Age) / float64(iteration)
	}
	return hsv(h, 1, 1)
}

// Palette colors cells by state: free, boundary, attached.
type Palette []color.RGBA

// DefaultPalette is the viewer's state palette.
var DefaultPalette = Palette{
	{R: 0x10, G: 0x18, B: 0x30, A: 0xff},
	{R: 0x5f, G: 0x9e, B: 0xd6, A: 0xff},
	white,
}

func (p Palette) Color(c crystal.Cell, _ int) color.RGBA {
	if len(p) == 0 {
		return color.RGBA{}
	}
	return p[min(int(c.State()), len(p)-1)]
}

// ByName returns a scheme for a command-line name.
func ByName(name string) (Scheme, bool) {
	switch name {
	case "grayscale", "gray":
		return Grayscale{}, true
	case "bw", "blackwhite":
		return BlackWhite{}, true
	case "bw-boundary":
		return BlackWhite{Boundary: true}, true
	case "age":
		return Age{}, true
	case "state":
		return DefaultPalette, true
	}
	return nil, false
}

// hsv converts hue in [0,1] with saturation and value to RGBA.
func hsv(h, s, v float64) color.RGBA {
	r, g, b := colorful.Hsv(math.Mod(h, 1)*360, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
