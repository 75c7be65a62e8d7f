package grid

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasToTile(t *testing.T) {
	tables := []struct {
		mapper Mapper
		p      image.Point
		want   image.Point
	}{
		{Mapper{512, 0}, image.Pt(600, 10), image.Pt(1, 0)},
		{Mapper{512, 0}, image.Pt(511, 512), image.Pt(0, 1)},
		{Mapper{512, 0}, image.Pt(-1, -512), image.Pt(-1, -1)},
		{Mapper{512, 0}, image.Pt(-513, 0), image.Pt(-2, 0)},
		{Mapper{960, 448}, image.Pt(0, 0), image.Pt(0, 0)},
		{Mapper{960, 448}, image.Pt(-448, -449), image.Pt(0, -1)},
		{Mapper{960, 448}, image.Pt(512, 511), image.Pt(1, 0)},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, table.mapper.CanvasToTile(table.p), "%v %v", table.mapper, table.p)
	}
}

func TestTileOrigin(t *testing.T) {
	m := Mapper{960, 448}
	assert.Equal(t, image.Pt(-448, -448), m.TileOrigin(image.Pt(0, 0)))
	assert.Equal(t, image.Pt(512, -1408), m.TileOrigin(image.Pt(1, -1)))
	assert.Equal(t, image.Rect(-448, -448, 512, 512), m.TileBounds(image.Pt(0, 0)))

	for _, p := range []image.Point{{0, 0}, {-3, 7}, {12, -40}} {
		assert.Equal(t, p, m.CanvasToTile(m.TileOrigin(p)))
	}
}

func TestTileBoundingBox(t *testing.T) {
	m := Mapper{512, 0}

	// Ends on the last pixel of tile 0
	r := m.TileBoundingBox(image.Rect(0, 0, 512, 512))
	assert.Equal(t, image.Rect(0, 0, 1, 1), r)

	// One pixel over spills into the next tile
	r = m.TileBoundingBox(image.Rect(0, 0, 513, 512))
	assert.Equal(t, image.Rect(0, 0, 2, 1), r)

	r = m.TileBoundingBox(image.Rect(-10, -10, 10, 10))
	assert.Equal(t, image.Rect(-1, -1, 1, 1), r)

	assert.True(t, m.TileBoundingBox(image.Rectangle{}).Empty())
	assert.Nil(t, Tiles(image.Rectangle{}))
}

func TestBoundingBoxCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		m := Mapper{TileSize: 1 + rng.Intn(64), OriginOffset: rng.Intn(100)}
		x, y := rng.Intn(400)-200, rng.Intn(400)-200
		area := image.Rect(x, y, x+1+rng.Intn(150), y+1+rng.Intn(150))

		tiles := m.TileBoundingBox(area)
		covered := m.CanvasBounds(tiles)
		require.True(t, area.In(covered), "%v not in %v (%v)", area, covered, m)

		// Minimal: shrinking the range on any side loses a pixel
		assert.True(t, m.TileBounds(tiles.Min).Overlaps(area))
		assert.True(t, m.TileBounds(tiles.Max.Sub(image.Pt(1, 1))).Overlaps(area))
	}
}

func TestUnionBoundingBox(t *testing.T) {
	m := Mapper{100, 0}

	r := m.UnionBoundingBox(image.Rect(10, 10, 20, 20), image.Rect(250, 320, 260, 330))
	assert.Equal(t, image.Rect(0, 0, 3, 4), r)

	r = m.UnionBoundingBox(image.Rect(-150, 10, -140, 20), image.Rectangle{}, image.Rect(10, 10, 20, 20))
	assert.Equal(t, image.Rect(-2, 0, 1, 1), r)

	assert.True(t, m.UnionBoundingBox().Empty())
	assert.Len(t, Tiles(r), 3)
	assert.Equal(t, []image.Point{{-2, 0}, {-1, 0}, {0, 0}}, Tiles(r))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Mapper{}.Validate())
	assert.Error(t, Mapper{TileSize: -1}.Validate())
	assert.NoError(t, Mapper{TileSize: 1}.Validate())
}
