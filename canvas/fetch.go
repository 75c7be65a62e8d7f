package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrTileNotFound is returned by a Fetcher when the tile does not exist
// remotely.
var ErrTileNotFound = errors.New("canvas: tile not found")

// TransportError describes any other failure to retrieve a tile.
type TransportError struct {
	Tile image.Point
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("canvas: fetching tile %d,%d: %v", e.Tile.X, e.Tile.Y, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves the pixels of one tile by grid coordinate. The returned
// image is expected to be TileSize pixels square; each pixel's color is
// mapped onto the palette with palette.Lookup. It returns ErrTileNotFound
// or a *TransportError when no pixels are available.
type Fetcher interface {
	Fetch(ctx context.Context, tile image.Point) (image.Image, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, tile image.Point) (image.Image, error)

// Fetch calls f(ctx, tile).
func (f FetcherFunc) Fetch(ctx context.Context, tile image.Point) (image.Image, error) {
	return f(ctx, tile)
}
