/*
Package template implements reference images placed on the canvas and the
verification of those images against a reconstructed canvas.Region.

Expected pixels are immutable once a Template is created. The error mask and
counts are replaced every time a verification result is applied; results
carry a generation so that a result computed from an older canvas never
overwrites one computed from a newer canvas.
*/
package template

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/bodgit/pxct/palette"
)

var (
	errEmptyArea  = errors.New("empty area")
	errPixelCount = errors.New("pixel grid does not match area")
)

// MalformedError is returned when a template's area and pixel data
// disagree or its placement cannot be determined.
type MalformedError struct {
	Filename string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("template: %s: %v", e.Filename, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Template is a reference image and its placement on the canvas.
type Template struct {
	Name     string
	Filename string
	// Area is the placement in canvas coordinates.
	Area image.Rectangle

	pixels []palette.Code

	mu         sync.RWMutex
	errors     []bool
	errorCount int
	pixelCount int
	generation uint64
}

// New returns a Template covering area with the expected codes in pixels,
// stored row-major.
func New(name, filename string, area image.Rectangle, pixels []palette.Code) (*Template, error) {
	if area.Empty() {
		return nil, &MalformedError{filename, errEmptyArea}
	}
	if len(pixels) != area.Dx()*area.Dy() {
		return nil, &MalformedError{filename, fmt.Errorf("%w: %d pixels for %dx%d", errPixelCount, len(pixels), area.Dx(), area.Dy())}
	}

	t := &Template{
		Name:     name,
		Filename: filename,
		Area:     area,
		pixels:   make([]palette.Code, len(pixels)),
		errors:   make([]bool, len(pixels)),
	}
	for i, code := range pixels {
		if !code.Valid() {
			return nil, &MalformedError{filename, &palette.InvalidCodeError{Code: int(code)}}
		}
		t.pixels[i] = code
		if code != palette.Transparent {
			t.pixelCount++
		}
	}

	return t, nil
}

// FromImage returns a Template placed with its top-left pixel at origin,
// mapping each pixel of m to the nearest canvas color.
func FromImage(name, filename string, origin image.Point, m image.Image) (*Template, error) {
	b := m.Bounds()
	area := image.Rectangle{Min: origin, Max: origin.Add(b.Size())}
	return New(name, filename, area, palette.Codes(m))
}

// Width returns the width of the template in pixels.
func (t *Template) Width() int {
	return t.Area.Dx()
}

// Height returns the height of the template in pixels.
func (t *Template) Height() int {
	return t.Area.Dy()
}

func (t *Template) offset(x, y int) int {
	return y*t.Area.Dx() + x
}

// PixelAt returns the expected code at local coordinates x, y.
func (t *Template) PixelAt(x, y int) palette.Code {
	if x < 0 || y < 0 || x >= t.Width() || y >= t.Height() {
		return palette.Transparent
	}
	return t.pixels[t.offset(x, y)]
}

// ErrorAt reports whether local pixel x, y was a mismatch at the last
// verification.
func (t *Template) ErrorAt(x, y int) bool {
	if x < 0 || y < 0 || x >= t.Width() || y >= t.Height() {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errors[t.offset(x, y)]
}

// Errors returns a copy of the error mask in row-major order.
func (t *Template) Errors() []bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]bool(nil), t.errors...)
}

// ErrorCount returns the number of mismatched pixels.
func (t *Template) ErrorCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorCount
}

// PixelCount returns the number of non-transparent expected pixels.
func (t *Template) PixelCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pixelCount
}

// GoodPixelCount returns the number of expected pixels that match.
func (t *Template) GoodPixelCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pixelCount - t.errorCount
}

// HasErrors reports whether any pixel is damaged.
func (t *Template) HasErrors() bool {
	return t.ErrorCount() > 0
}

// Generation returns the generation of the last applied result.
func (t *Template) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation
}

// Image renders the expected pixels, in local coordinates.
func (t *Template) Image() *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, t.Width(), t.Height()), palette.WithTransparent())
	for i, code := range t.pixels {
		m.Pix[i] = palette.Index(code)
	}
	return m
}
