package canvas

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bodgit/pxct/grid"
	"github.com/bodgit/pxct/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tileSize = 8

type fakeFetcher struct {
	mu      sync.Mutex
	tiles   map[image.Point]image.Image
	failed  map[image.Point]bool
	fetched []image.Point
}

func (f *fakeFetcher) Fetch(ctx context.Context, t image.Point) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, t)
	if f.failed[t] {
		return nil, &TransportError{Tile: t, Err: errors.New("connection reset")}
	}
	m, ok := f.tiles[t]
	if !ok {
		return nil, ErrTileNotFound
	}
	return m, nil
}

func solidTile(code palette.Code) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, tileSize, tileSize), palette.Colors())
	for i := range m.Pix {
		m.Pix[i] = uint8(code)
	}
	return m
}

func rgbaTile(c color.Color) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	for y := 0; y < tileSize; y++ {
		for x := 0; x < tileSize; x++ {
			m.Set(x, y, c)
		}
	}
	return m
}

func assertTile(t *testing.T, r *Region, m grid.Mapper, tile image.Point, want palette.Code) {
	t.Helper()
	b := m.TileBounds(tile)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			got, err := r.PixelAt(image.Pt(x, y))
			require.NoError(t, err)
			if !assert.Equal(t, want, got, "tile %v pixel %d,%d", tile, x, y) {
				return
			}
		}
	}
}

func TestBuild(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize, OriginOffset: 4}
	f := &fakeFetcher{
		tiles: map[image.Point]image.Image{
			{0, 0}: solidTile(palette.Red),
			{1, 0}: rgbaTile(color.RGBA{0, 0, 234, 255}),
			// Slightly off Green, as produced by lossy re-encoding
			{0, 1}: rgbaTile(color.RGBA{4, 188, 3, 255}),
		},
		failed: map[image.Point]bool{},
	}

	b := Builder{Mapper: m, Fetcher: f, Workers: 3}
	tiles := image.Rect(0, 0, 2, 2)
	r, err := b.Build(context.Background(), tiles, nil)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(-4, -4, 12, 12), r.Bounds())
	assert.Len(t, r.Pix, 16*16)
	assert.Len(t, f.fetched, 4)

	assertTile(t, r, m, image.Pt(0, 0), palette.Red)
	assertTile(t, r, m, image.Pt(1, 0), palette.Blue)
	assertTile(t, r, m, image.Pt(0, 1), palette.Green)
	// Not found
	assertTile(t, r, m, image.Pt(1, 1), palette.Transparent)
}

func TestBuildTransportError(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize}
	f := &fakeFetcher{
		tiles: map[image.Point]image.Image{
			{0, 0}: solidTile(palette.Turbo),
			{1, 0}: solidTile(palette.Turbo),
		},
		failed: map[image.Point]bool{{1, 0}: true},
	}

	b := Builder{Mapper: m, Fetcher: f}
	r, err := b.Build(context.Background(), image.Rect(0, 0, 2, 1), nil)
	require.NoError(t, err)

	assertTile(t, r, m, image.Pt(0, 0), palette.Turbo)
	assertTile(t, r, m, image.Pt(1, 0), palette.Transparent)
}

func TestBuildNilImage(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize}
	f := FetcherFunc(func(ctx context.Context, p image.Point) (image.Image, error) {
		if p.X == 0 {
			return nil, nil
		}
		return solidTile(palette.Lavender), nil
	})

	b := Builder{Mapper: m, Fetcher: f}
	r, err := b.Build(context.Background(), image.Rect(0, 0, 2, 1), nil)
	require.NoError(t, err)

	assertTile(t, r, m, image.Pt(0, 0), palette.Transparent)
	assertTile(t, r, m, image.Pt(1, 0), palette.Lavender)
}

func TestBuildNeeded(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize}
	f := &fakeFetcher{
		tiles: map[image.Point]image.Image{
			{0, 0}: solidTile(palette.Gray),
			{1, 0}: solidTile(palette.Gray),
		},
	}

	b := Builder{Mapper: m, Fetcher: f, Workers: 1}
	r, err := b.Build(context.Background(), image.Rect(0, 0, 2, 1), func(p image.Point) bool {
		return p.X == 1
	})
	require.NoError(t, err)

	assert.Equal(t, []image.Point{{1, 0}}, f.fetched)
	assertTile(t, r, m, image.Pt(0, 0), palette.Transparent)
	assertTile(t, r, m, image.Pt(1, 0), palette.Gray)
}

func TestBuildWrongTileSize(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize}
	small := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Colors())
	f := FetcherFunc(func(ctx context.Context, p image.Point) (image.Image, error) {
		return small, nil
	})

	b := Builder{Mapper: m, Fetcher: f}
	r, err := b.Build(context.Background(), image.Rect(0, 0, 1, 1), nil)
	require.NoError(t, err)

	code, err := r.PixelAt(image.Pt(3, 3))
	require.NoError(t, err)
	assert.Equal(t, palette.White, code)

	code, err = r.PixelAt(image.Pt(4, 4))
	require.NoError(t, err)
	assert.Equal(t, palette.Transparent, code)
}

func TestBuildCancel(t *testing.T) {
	m := grid.Mapper{TileSize: tileSize}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	f := FetcherFunc(func(ctx context.Context, p image.Point) (image.Image, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return solidTile(palette.Red), nil
	})

	b := Builder{Mapper: m, Fetcher: f, Workers: 1}
	r, err := b.Build(ctx, image.Rect(0, 0, 20, 20), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, r)
	assert.Less(t, atomic.LoadInt32(&calls), int32(400))
}

func TestBuildInvalidMapper(t *testing.T) {
	b := Builder{Fetcher: &fakeFetcher{}}
	_, err := b.Build(context.Background(), image.Rect(0, 0, 1, 1), nil)
	assert.Error(t, err)
}

func TestRegion(t *testing.T) {
	r := NewRegion(image.Rect(-2, -2, 2, 2))
	r.Set(image.Pt(-2, -2), palette.Lavender)
	r.Set(image.Pt(5, 5), palette.Lavender)

	code, err := r.PixelAt(image.Pt(-2, -2))
	require.NoError(t, err)
	assert.Equal(t, palette.Lavender, code)

	code, err = r.PixelAt(image.Pt(1, 1))
	require.NoError(t, err)
	assert.Equal(t, palette.Transparent, code)

	_, err = r.PixelAt(image.Pt(2, 0))
	var oob *OutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, image.Rect(2, 0, 3, 1), oob.Area)

	assert.NoError(t, r.Check(image.Rect(-2, -2, 2, 2)))
	assert.Error(t, r.Check(image.Rect(-3, -2, 2, 2)))

	r.Fill(image.Rect(0, 0, 10, 10), palette.Conifer)
	code, _ = r.PixelAt(image.Pt(1, 1))
	assert.Equal(t, palette.Conifer, code)

	m := r.Image()
	assert.Equal(t, r.Rect, m.Bounds())
	assert.Equal(t, palette.MustColor(palette.Lavender), m.At(-2, -2))
	assert.Equal(t, uint8(0), color.NRGBAModel.Convert(m.At(-1, -1)).(color.NRGBA).A)
	assert.Equal(t, palette.MustColor(palette.Conifer), m.At(1, 1))
}
