package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowgen/internal/core"
	"snowgen/internal/crystal"
)

func lattice(t *testing.T, size, steps int) *crystal.Lattice {
	t.Helper()
	cfg := crystal.DefaultConfig()
	cfg.Size = size
	cfg.Margin = 1
	cfg.Rand = core.NewRNG(5)
	l, err := crystal.New(cfg)
	require.NoError(t, err)
	for i := 0; i < steps; i++ {
		require.NoError(t, l.Step())
	}
	return l
}

func TestSchemes(t *testing.T) {
	attached := crystal.Cell{Attached: true, CrystalMass: 1}
	vapor := crystal.Cell{DiffusiveMass: 0.5}
	rich := crystal.Cell{Attached: true, CrystalMass: 4}
	boundary := crystal.Cell{Boundary: true}

	assert.Equal(t, uint8(200), Grayscale{}.Color(attached, 0).R)
	assert.Equal(t, uint8(100), Grayscale{}.Color(vapor, 0).G)
	assert.Equal(t, uint8(255), Grayscale{}.Color(rich, 0).B)

	assert.Equal(t, white, BlackWhite{}.Color(attached, 0))
	assert.Equal(t, black, BlackWhite{}.Color(boundary, 0))
	assert.Equal(t, white, BlackWhite{Boundary: true}.Color(boundary, 0))

	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, Age{}.Color(crystal.Cell{Age: 5}, 0))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, Age{}.Color(crystal.Cell{}, 10))
	assert.Equal(t, color.RGBA{G: 0xff, B: 0xff, A: 0xff}, Age{}.Color(crystal.Cell{Age: 5}, 10))
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, Age{}.Color(crystal.Cell{Age: 4}, 12))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, Age{}.Color(crystal.Cell{Age: 10}, 10), "full age wraps to red")

	assert.Equal(t, DefaultPalette[2], DefaultPalette.Color(attached, 0))
	assert.Equal(t, DefaultPalette[1], DefaultPalette.Color(boundary, 0))
	assert.Equal(t, color.RGBA{}, Palette(nil).Color(attached, 0))

	_, ok := ByName("age")
	assert.True(t, ok)
	_, ok = ByName("sepia")
	assert.False(t, ok)
}

func TestImage(t *testing.T) {
	l := lattice(t, 21, 0)

	img := Image(l, BlackWhite{}, Options{})
	require.Equal(t, 21, img.Bounds().Dx())
	assert.Equal(t, white, img.RGBAAt(10, 10))
	assert.Equal(t, black, img.RGBAAt(11, 10), "boundary cells are black without Boundary")

	cropped := Image(l, BlackWhite{}, Options{Crop: true, CropMargin: 2})
	assert.Equal(t, 11, cropped.Bounds().Dx())
	assert.Equal(t, white, cropped.RGBAAt(5, 5))

	scaled := Image(l, BlackWhite{}, Options{Crop: true, CropMargin: 2, Scale: 3})
	assert.Equal(t, 33, scaled.Bounds().Dx())
	assert.Equal(t, white, scaled.RGBAAt(16, 16))
}

func TestUnshear(t *testing.T) {
	l := lattice(t, 21, 0)
	img := Image(l, BlackWhite{Boundary: true}, Options{Unshear: true})
	b := img.Bounds()
	assert.Equal(t, 21, b.Dx())
	assert.Equal(t, 18, b.Dy())

	mx, my := b.Dx()/2, b.Dy()/2
	assert.Equal(t, white, img.RGBAAt(mx, my), "seed maps to the center")
	assert.Equal(t, white, img.RGBAAt(mx+1, my), "east neighbor is boundary")
	assert.Equal(t, white, img.RGBAAt(mx-1, my), "west neighbor is boundary")
	assert.Equal(t, black, img.RGBAAt(mx+4, my))
	assert.Equal(t, black, img.RGBAAt(mx, my+5))
}

func TestClassImage(t *testing.T) {
	l := lattice(t, 9, 0)
	img := ClassImage(l.Classes(), 9, DefaultPalette)
	assert.Equal(t, DefaultPalette[2], img.RGBAAt(4, 4))
	assert.Equal(t, DefaultPalette[1], img.RGBAAt(4, 3))
	assert.Equal(t, DefaultPalette[0], img.RGBAAt(0, 0))

	empty := ClassImage(l.Classes(), 9, nil)
	assert.Equal(t, color.RGBA{}, empty.RGBAAt(4, 4))
}

func TestWritePNG(t *testing.T) {
	l := lattice(t, 15, 5)
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, Image(l, Grayscale{}, Options{})))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 15, img.Bounds().Dx())
}
