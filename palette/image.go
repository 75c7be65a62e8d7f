package palette

import "image"

// Codes returns the code of every pixel of m in row-major order, starting
// at m.Bounds().Min.
func Codes(m image.Image) []Code {
	b := m.Bounds()
	codes := make([]Code, 0, b.Dx()*b.Dy())

	if pm, ok := m.(*image.Paletted); ok {
		lut := make([]Code, len(pm.Palette))
		for i, c := range pm.Palette {
			lut[i] = Lookup(c)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				code := Transparent
				if idx := int(pm.ColorIndexAt(x, y)); idx < len(lut) {
					code = lut[idx]
				}
				codes = append(codes, code)
			}
		}
		return codes
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			codes = append(codes, Lookup(m.At(x, y)))
		}
	}
	return codes
}
