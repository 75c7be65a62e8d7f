/*
Package compare renders a template next to its verification result.

The first half shows the expected pixels, the second half shows every
damaged pixel in red over a grayscale copy of the expected image. The halves
are placed side by side unless the template is wider than 16:9, in which
case they are stacked.
*/
package compare

import (
	"image"
	"image/color"

	"github.com/bodgit/pxct/palette"
	"github.com/bodgit/pxct/template"
	"golang.org/x/image/draw"
)

// Options control the rendering.
type Options struct {
	// Scale is the size in output pixels of each template pixel.
	Scale int
	// Grid draws lines between pixels when Scale is at least MinGridScale.
	Grid bool
}

// MinGridScale is the smallest scale at which a grid is drawn.
const MinGridScale = 4

var (
	errorColor = color.NRGBA{255, 0, 0, 255}
	gridColor  = color.NRGBA{0, 0, 0, 64}
)

// Horizontal reports whether a w by h template is rendered side by side.
func Horizontal(w, h int) bool {
	return w*9 <= h*16
}

// Grayscale returns the luminance of c as an opaque gray.
func Grayscale(c color.NRGBA) color.NRGBA {
	if c.A == 0 {
		return c
	}
	g := uint8(float64(c.R)*0.2126 + float64(c.G)*0.7152 + float64(c.B)*0.0722)
	return color.NRGBA{g, g, g, 255}
}

// Render draws the comparison for t.
func Render(t *template.Template, opts Options) *image.NRGBA {
	w, h := t.Width(), t.Height()
	horizontal := Horizontal(w, h)

	b := image.Rect(0, 0, w, h*2)
	if horizontal {
		b = image.Rect(0, 0, w*2, h)
	}
	m := image.NewNRGBA(b)

	mask := t.Errors()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := palette.MustColor(t.PixelAt(x, y))
			m.SetNRGBA(x, y, c)

			e := Grayscale(c)
			if mask[y*w+x] {
				e = errorColor
			}
			if horizontal {
				m.SetNRGBA(x+w, y, e)
			} else {
				m.SetNRGBA(x, y+h, e)
			}
		}
	}

	if opts.Scale <= 1 {
		return m
	}

	scaled := image.NewNRGBA(image.Rect(0, 0, b.Dx()*opts.Scale, b.Dy()*opts.Scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), m, b, draw.Src, nil)

	if opts.Grid && opts.Scale >= MinGridScale {
		drawGrid(scaled, opts.Scale)
	}

	return scaled
}

func drawGrid(m *image.NRGBA, scale int) {
	src := image.NewUniform(gridColor)
	b := m.Bounds()
	for x := b.Min.X; x < b.Max.X; x += scale {
		draw.Draw(m, image.Rect(x, b.Min.Y, x+1, b.Max.Y), src, image.Point{}, draw.Over)
	}
	for y := b.Min.Y; y < b.Max.Y; y += scale {
		draw.Draw(m, image.Rect(b.Min.X, y, b.Max.X, y+1), src, image.Point{}, draw.Over)
	}
}
