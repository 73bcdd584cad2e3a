// Package render turns lattices into images.
package render

import (
	"image"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"snowgen/internal/crystal"
)

// Options controls Image post-processing.
type Options struct {
	// Unshear maps the hex lattice onto the plane so the six arms are
	// evenly spaced.
	Unshear bool
	// Crop trims the image to the crystal plus CropMargin cells.
	Crop       bool
	CropMargin int
	// Scale enlarges the result by an integer factor.
	Scale int
}

// Image renders l with scheme s.
func Image(l *crystal.Lattice, s Scheme, opts Options) *image.RGBA {
	n := l.Size()
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	fillRGBA(img.Pix, l, s)

	if opts.Unshear {
		img = unshear(img, l)
	}
	if opts.Crop {
		img = crop(img, cropBox(img, l, opts))
	}
	if opts.Scale > 1 {
		b := img.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*opts.Scale, b.Dy()*opts.Scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}
	return img
}

// ClassImage renders cell classes from Lattice.Classes with a palette.
func ClassImage(classes []uint8, size int, p Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	fillPaletteRGBA(img.Pix, classes, p)
	return img
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// unshear resamples the grid so that neighbor offsets (1,0), (0,1) and (1,1)
// land on a regular hexagon. Grid y is stretched by 2/√3 and x is shifted by
// half a cell per row. The output is centered on the seed.
func unshear(src *image.RGBA, l *crystal.Lattice) *image.RGBA {
	n := l.Size()
	w, h := n, int(math.Round(float64(n)*math.Sqrt(3)/2))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	cx, cy := l.Center()
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			wy := float64(py - h/2)
			gy := wy * 2 / math.Sqrt(3)
			gx := float64(px-w/2) + gy/2
			x := cx + int(math.Round(gx))
			y := cy + int(math.Round(gy))
			o := dst.PixOffset(px, py)
			if x < 0 || y < 0 || x >= n || y >= n {
				copy(dst.Pix[o:o+4], []byte{0, 0, 0, 0xff})
				continue
			}
			s := src.PixOffset(x, y)
			copy(dst.Pix[o:o+4], src.Pix[s:s+4])
		}
	}
	return dst
}

func cropBox(img *image.RGBA, l *crystal.Lattice, opts Options) image.Rectangle {
	if !opts.Unshear {
		return l.CropBox(opts.CropMargin)
	}
	b := img.Bounds()
	d := min(l.Radius()+opts.CropMargin, l.Size()/2)
	mx, my := b.Dx()/2, b.Dy()/2
	return image.Rect(mx-d, my-d, mx+d+1, my+d+1).Intersect(b)
}

func crop(src *image.RGBA, box image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Copy(dst, image.Point{}, src, box, draw.Src, nil)
	return dst
}
