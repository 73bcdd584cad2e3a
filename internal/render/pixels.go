package render

import (
	"image/color"

	"snowgen/internal/crystal"
)

// fillRGBA writes one RGBA pixel per cell into buf in row-major order.
func fillRGBA(buf []byte, l *crystal.Lattice, s Scheme) {
	it := l.Iteration()
	l.Each(func(idx int, c crystal.Cell) {
		col := s.Color(c, it)
		base := idx * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	})
}

// fillPaletteRGBA converts cell classes into RGBA pixels using a palette.
// When the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, classes []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(classes)*4])
		return
	}
	last := len(palette) - 1
	for i, c := range classes {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
