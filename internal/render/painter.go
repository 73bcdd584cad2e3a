//go:build ebiten

package render

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads rendered lattice images to an ebiten texture.
type GridPainter struct {
	img  *ebiten.Image
	size image.Point
}

// NewGridPainter allocates a texture of the given size.
func NewGridPainter(w, h int) *GridPainter {
	return &GridPainter{img: ebiten.NewImage(w, h), size: image.Pt(w, h)}
}

// Blit draws src onto screen at the given integer scale. The texture is
// reallocated when src changes size.
func (p *GridPainter) Blit(screen *ebiten.Image, src *image.RGBA, scale int) {
	b := src.Bounds()
	if b.Size() != p.size {
		p.img.Dispose()
		p.img = ebiten.NewImage(b.Dx(), b.Dy())
		p.size = b.Size()
	}
	p.img.WritePixels(src.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	screen.DrawImage(p.img, op)
}
