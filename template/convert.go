package template

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/pxct/palette"
	"github.com/ericpauley/go-quantize/quantize"
)

// Convert reduces arbitrary artwork to a valid template image. The artwork
// is first quantized to at most sixteen representative colors by median
// cut, each of which is then replaced by its nearest canvas color. Fully
// transparent pixels stay transparent.
func Convert(m image.Image) *image.Paletted {
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, palette.NumColors), m)

	snapped := make(color.Palette, 0, len(p)+1)
	for _, c := range p {
		snapped = append(snapped, palette.Model.Convert(c))
	}
	transparent := uint8(len(snapped))
	snapped = append(snapped, color.NRGBA{})

	pm := image.NewPaletted(b, snapped)
	draw.Draw(pm, b, m, b.Min, draw.Src)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a == 0 {
				pm.SetColorIndex(x, y, transparent)
			} else if pm.ColorIndexAt(x, y) == transparent {
				pm.Set(x, y, palette.Model.Convert(m.At(x, y)))
			}
		}
	}

	// Adjust image so that top-left corner is at (0, 0)
	if pm.Rect.Min != (image.Point{}) {
		dup := *pm
		dup.Rect = dup.Rect.Sub(dup.Rect.Min)
		pm = &dup
	}

	return pm
}
