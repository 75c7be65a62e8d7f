/*
Package canvas assembles a coordinate addressable pixel buffer from
independently fetched tiles.

A Region covers a tile aligned rectangle of the canvas and stores one
palette.Code per pixel in a flat, stride addressed slice. Tiles that cannot
be fetched are left Transparent so they never count as matching or
mismatching any expected pixel.
*/
package canvas

import (
	"fmt"
	"image"

	"github.com/bodgit/pxct/palette"
)

// OutOfBoundsError is returned when pixels outside a Region are read.
type OutOfBoundsError struct {
	Area   image.Rectangle
	Bounds image.Rectangle
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("canvas: %v is outside of region %v", e.Area, e.Bounds)
}

// Region is a rectangle of the canvas in canvas coordinates.
type Region struct {
	// Pix holds the codes in row-major order starting at Rect.Min, the
	// pixel at (x, y) is at Pix[(y-Rect.Min.Y)*Stride+(x-Rect.Min.X)].
	Pix    []palette.Code
	Stride int
	Rect   image.Rectangle
}

// NewRegion returns a Region covering r with every pixel Transparent.
func NewRegion(r image.Rectangle) *Region {
	r = r.Canon()
	pix := make([]palette.Code, r.Dx()*r.Dy())
	for i := range pix {
		pix[i] = palette.Transparent
	}
	return &Region{
		Pix:    pix,
		Stride: r.Dx(),
		Rect:   r,
	}
}

// Bounds returns the canvas area covered by the region.
func (r *Region) Bounds() image.Rectangle {
	return r.Rect
}

// PixOffset returns the index of the pixel at p within Pix.
func (r *Region) PixOffset(p image.Point) int {
	return (p.Y-r.Rect.Min.Y)*r.Stride + (p.X - r.Rect.Min.X)
}

// PixelAt returns the code at canvas point p.
func (r *Region) PixelAt(p image.Point) (palette.Code, error) {
	if !p.In(r.Rect) {
		return palette.Transparent, &OutOfBoundsError{
			Area:   image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))},
			Bounds: r.Rect,
		}
	}
	return r.Pix[r.PixOffset(p)], nil
}

// Set stores the code at canvas point p. Points outside the region are
// ignored. A region must not be modified once it has been handed to a
// verifier.
func (r *Region) Set(p image.Point, code palette.Code) {
	if p.In(r.Rect) {
		r.Pix[r.PixOffset(p)] = code
	}
}

// Fill sets every pixel in area to code.
func (r *Region) Fill(area image.Rectangle, code palette.Code) {
	area = area.Intersect(r.Rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		i := r.PixOffset(image.Pt(area.Min.X, y))
		row := r.Pix[i : i+area.Dx()]
		for x := range row {
			row[x] = code
		}
	}
}

// Check returns an *OutOfBoundsError unless area lies entirely within the
// region.
func (r *Region) Check(area image.Rectangle) error {
	if !area.In(r.Rect) {
		return &OutOfBoundsError{Area: area, Bounds: r.Rect}
	}
	return nil
}

// Image renders the region as a paletted image in canvas coordinates.
// Transparent pixels use the extra transparent palette entry.
func (r *Region) Image() *image.Paletted {
	m := image.NewPaletted(r.Rect, palette.WithTransparent())
	for i, code := range r.Pix {
		m.Pix[i] = palette.Index(code)
	}
	return m
}
