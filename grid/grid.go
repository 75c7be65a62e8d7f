/*
Package grid converts between canvas pixel coordinates and the tile grid used
by the remote tiling scheme.

A canvas point p lies in tile floor((p + OriginOffset) / TileSize) on each
axis, so tile (0, 0) starts at canvas pixel (-OriginOffset, -OriginOffset).
Tile ranges are image.Rectangle values in tile units with an exclusive Max,
the same convention image.Rectangle uses for pixels.
*/
package grid

import (
	"errors"
	"image"
)

var errTileSize = errors.New("grid: tile size must be positive")

// Mapper maps canvas coordinates onto a tile grid.
type Mapper struct {
	TileSize     int
	OriginOffset int
}

// Validate checks the mapper can be used.
func (m Mapper) Validate() error {
	if m.TileSize <= 0 {
		return errTileSize
	}
	return nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// CanvasToTile returns the tile containing canvas pixel p.
func (m Mapper) CanvasToTile(p image.Point) image.Point {
	return image.Point{
		X: floorDiv(p.X+m.OriginOffset, m.TileSize),
		Y: floorDiv(p.Y+m.OriginOffset, m.TileSize),
	}
}

// TileOrigin returns the canvas coordinates of the top-left pixel of tile t.
func (m Mapper) TileOrigin(t image.Point) image.Point {
	return image.Point{
		X: t.X*m.TileSize - m.OriginOffset,
		Y: t.Y*m.TileSize - m.OriginOffset,
	}
}

// TileBounds returns the canvas pixels covered by tile t.
func (m Mapper) TileBounds(t image.Point) image.Rectangle {
	min := m.TileOrigin(t)
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(m.TileSize, m.TileSize))}
}

// TileBoundingBox returns the range of tiles covering area. The top-left
// tile is Min and the bottom-right tile, the one holding the last pixel of
// area, is Max-(1,1). An empty area yields an empty range.
func (m Mapper) TileBoundingBox(area image.Rectangle) image.Rectangle {
	area = area.Canon()
	if area.Empty() {
		return image.Rectangle{}
	}
	tl := m.CanvasToTile(area.Min)
	br := m.CanvasToTile(area.Max.Sub(image.Pt(1, 1)))
	return image.Rectangle{Min: tl, Max: br.Add(image.Pt(1, 1))}
}

// UnionBoundingBox returns the smallest tile range covering every area.
func (m Mapper) UnionBoundingBox(areas ...image.Rectangle) image.Rectangle {
	var r image.Rectangle
	for _, area := range areas {
		r = r.Union(m.TileBoundingBox(area))
	}
	return r
}

// CanvasBounds returns the canvas pixels covered by the tile range r.
func (m Mapper) CanvasBounds(r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rectangle{
		Min: m.TileOrigin(r.Min),
		Max: m.TileOrigin(r.Max),
	}
}

// Tiles lists every tile in r in row-major order.
func Tiles(r image.Rectangle) []image.Point {
	if r.Empty() {
		return nil
	}
	tiles := make([]image.Point, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			tiles = append(tiles, image.Pt(x, y))
		}
	}
	return tiles
}
