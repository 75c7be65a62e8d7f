package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for c := Code(0); c < NumColors; c++ {
		rgb, err := CodeToColor(c)
		require.NoError(t, err)
		assert.Equal(t, c, ColorToCode([3]uint8{rgb.R, rgb.G, rgb.B}, 255), c.String())
	}

	rgb, err := CodeToColor(Transparent)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), rgb.A)
	assert.Equal(t, Transparent, ColorToCode([3]uint8{rgb.R, rgb.G, rgb.B}, rgb.A))
}

func TestColors(t *testing.T) {
	p := Colors()
	require.Len(t, p, NumColors)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, p[0])
	assert.Equal(t, color.NRGBA{130, 0, 128, 255}, p[15])
	assert.Equal(t, White, ColorToCode([3]uint8{255, 255, 255}, 255))
	assert.Equal(t, Transparent, ColorToCode([3]uint8{0, 0, 0}, 0))
	assert.Equal(t, Transparent, ColorToCode([3]uint8{229, 0, 0}, 0))

	seen := make(map[color.Color]bool)
	for _, c := range p {
		assert.False(t, seen[c], "duplicate color %v", c)
		seen[c] = true
	}
}

func TestInvalidCode(t *testing.T) {
	for _, c := range []Code{-2, 16, 100} {
		_, err := CodeToColor(c)
		var invalid *InvalidCodeError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, int(c), invalid.Code)
	}
	assert.Panics(t, func() { MustColor(16) })
}

func TestNearest(t *testing.T) {
	tables := []struct {
		name string
		rgb  [3]uint8
		want Code
	}{
		{"dark red", [3]uint8{200, 10, 10}, Red},
		{"almost black", [3]uint8{10, 10, 10}, Mineshaft},
		{"near black", [3]uint8{1, 2, 3}, Mineshaft},
		{"noisy blue", [3]uint8{3, 1, 230}, Blue},
		// Equidistant from Mercury and White, Mercury sorts first by name
		{"tie", [3]uint8{241, 242, 241}, Mercury},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			got := ColorToCode(table.rgb, 255)
			assert.Equal(t, table.want, got)
			for i := 0; i < 10; i++ {
				assert.Equal(t, got, ColorToCode(table.rgb, 255))
			}
		})
	}
}

func TestLookup(t *testing.T) {
	assert.Equal(t, Red, Lookup(color.RGBA{229, 0, 0, 255}))
	assert.Equal(t, Transparent, Lookup(color.RGBA{}))
	assert.Equal(t, Transparent, Lookup(color.Transparent))
	assert.Equal(t, White, Lookup(color.White))
	assert.Equal(t, Mineshaft, Lookup(color.Black))
	assert.Equal(t, color.NRGBA{229, 0, 0, 255}, Model.Convert(color.RGBA{230, 1, 1, 255}))
}

func TestIndex(t *testing.T) {
	p := WithTransparent()
	require.Len(t, p, NumColors+1)
	assert.Equal(t, uint8(NumColors), Index(Transparent))
	for c := Code(0); c < NumColors; c++ {
		assert.Equal(t, MustColor(c), p[Index(c)])
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "FreshEggplant", FreshEggplant.String())
	assert.Equal(t, "Transparent", Transparent.String())
	assert.Equal(t, "Code(20)", Code(20).String())
}

func TestCodes(t *testing.T) {
	pm := image.NewPaletted(image.Rect(2, 2, 4, 3), WithTransparent())
	pm.SetColorIndex(2, 2, Index(Transparent))
	pm.SetColorIndex(3, 2, uint8(Lochmara))
	assert.Equal(t, []Code{Transparent, Lochmara}, Codes(pm))

	// Index beyond the palette
	short := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.White})
	short.Pix[0] = 3
	assert.Equal(t, []Code{Transparent}, Codes(short))

	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.Set(0, 0, color.NRGBA{148, 224, 68, 255})
	assert.Equal(t, []Code{Conifer, Transparent}, Codes(m))
}
