/*
Package palette implements the fixed set of sixteen colors permitted on the
canvas and the mapping between those colors and their integer codes.

Codes 0 to 15 index the palette, code -1 is the transparent sentinel meaning
either "no expected content" or "no data fetched". Colors not present in the
palette are mapped to the nearest palette color by Euclidean distance in RGB
space so that re-encoded imagery with minor quantization noise still maps to
a valid code.
*/
package palette

import (
	"fmt"
	"image/color"
	"math"
)

// Code is a canvas color code in the range [-1, 15].
type Code int8

const (
	// Transparent is the sentinel code for unset pixels.
	Transparent Code = -1

	// NumColors is the number of colors in the palette
	NumColors = 16
)

// Palette codes in canvas order
const (
	White Code = iota
	Mercury
	Gray
	Mineshaft
	CarnationPink
	Red
	Tangerine
	CapePalliser
	Turbo
	Conifer
	Green
	RobinsEggBlue
	Lochmara
	Blue
	Lavender
	FreshEggplant
)

type entry struct {
	name string
	rgb  color.NRGBA
}

// Indexed by code. Source of color names:
// http://people.csail.mit.edu/jaffer/Color/resenecolours.txt
var entries = [NumColors]entry{
	White:         {"White", color.NRGBA{255, 255, 255, 255}},
	Mercury:       {"Mercury", color.NRGBA{228, 228, 228, 255}},
	Gray:          {"Gray", color.NRGBA{136, 136, 136, 255}},
	Mineshaft:     {"Mineshaft", color.NRGBA{34, 34, 34, 255}},
	CarnationPink: {"CarnationPink", color.NRGBA{255, 167, 209, 255}},
	Red:           {"Red", color.NRGBA{229, 0, 0, 255}},
	Tangerine:     {"Tangerine", color.NRGBA{229, 149, 0, 255}},
	CapePalliser:  {"CapePalliser", color.NRGBA{160, 106, 66, 255}},
	Turbo:         {"Turbo", color.NRGBA{229, 217, 0, 255}},
	Conifer:       {"Conifer", color.NRGBA{148, 224, 68, 255}},
	Green:         {"Green", color.NRGBA{2, 190, 1, 255}},
	RobinsEggBlue: {"RobinsEggBlue", color.NRGBA{0, 211, 221, 255}},
	Lochmara:      {"Lochmara", color.NRGBA{0, 131, 199, 255}},
	Blue:          {"Blue", color.NRGBA{0, 0, 234, 255}},
	Lavender:      {"Lavender", color.NRGBA{207, 110, 228, 255}},
	FreshEggplant: {"FreshEggplant", color.NRGBA{130, 0, 128, 255}},
}

// The nearest color search walks the palette in name order; the first
// entry at the minimum distance wins.
var searchOrder = [NumColors]Code{
	Blue,
	CapePalliser,
	CarnationPink,
	Conifer,
	FreshEggplant,
	Gray,
	Green,
	Lavender,
	Lochmara,
	Mercury,
	Mineshaft,
	Red,
	RobinsEggBlue,
	Tangerine,
	Turbo,
	White,
}

var exact = func() map[[3]uint8]Code {
	m := make(map[[3]uint8]Code, NumColors)
	for i, e := range entries {
		m[[3]uint8{e.rgb.R, e.rgb.G, e.rgb.B}] = Code(i)
	}
	return m
}()

// InvalidCodeError is returned when a code outside [-1, 15] is converted.
type InvalidCodeError struct {
	Code int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("palette: invalid color code %d", e.Code)
}

// Valid reports whether c is within [-1, 15].
func (c Code) Valid() bool {
	return c >= Transparent && c < NumColors
}

func (c Code) String() string {
	if c == Transparent {
		return "Transparent"
	}
	if !c.Valid() {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return entries[c].name
}

// CodeToColor returns the color for the given code. Transparent maps to a
// fully transparent color.
func CodeToColor(code Code) (color.NRGBA, error) {
	switch {
	case code == Transparent:
		return color.NRGBA{}, nil
	case code.Valid():
		return entries[code].rgb, nil
	default:
		return color.NRGBA{}, &InvalidCodeError{int(code)}
	}
}

// MustColor is like CodeToColor but panics on an invalid code.
func MustColor(code Code) color.NRGBA {
	c, err := CodeToColor(code)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorToCode returns the code for the RGB triple with the given alpha. An
// alpha of zero is always Transparent.
func ColorToCode(rgb [3]uint8, alpha uint8) Code {
	if alpha == 0 {
		return Transparent
	}
	if code, ok := exact[rgb]; ok {
		return code
	}
	return nearest(rgb)
}

// Lookup returns the code for an arbitrary color.Color.
func Lookup(c color.Color) Code {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return ColorToCode([3]uint8{n.R, n.G, n.B}, n.A)
}

func distance(a [3]uint8, b color.NRGBA) int {
	dr := int(a[0]) - int(b.R)
	dg := int(a[1]) - int(b.G)
	db := int(a[2]) - int(b.B)
	return int(math.Sqrt(float64(dr*dr + dg*dg + db*db)))
}

func nearest(rgb [3]uint8) Code {
	best, bestDistance := searchOrder[0], math.MaxInt
	for _, code := range searchOrder {
		if d := distance(rgb, entries[code].rgb); d < bestDistance {
			best, bestDistance = code, d
		}
	}
	return best
}

// Colors returns the palette as a color.Palette indexed by code.
func Colors() color.Palette {
	p := make(color.Palette, NumColors)
	for i, e := range entries {
		p[i] = e.rgb
	}
	return p
}

// WithTransparent returns the palette with a transparent color appended at
// index NumColors, suitable for an image.Paletted that must represent
// Transparent.
func WithTransparent() color.Palette {
	return append(Colors(), color.NRGBA{})
}

// Index returns the index of code within a palette returned by
// WithTransparent.
func Index(code Code) uint8 {
	if code == Transparent || !code.Valid() {
		return NumColors
	}
	return uint8(code)
}

// Model converts any color to the nearest canvas color, or to a transparent
// color if its alpha is zero.
var Model color.Model = color.ModelFunc(func(c color.Color) color.Color {
	return MustColor(Lookup(c))
})
