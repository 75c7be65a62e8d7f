/*
Package tile implements the transport side of canvas reconstruction: raw
tile sources, such as the remote HTTP tile API, and the decoders that turn
their bytes into images a canvas.Builder can consume.

The pixelcanvas.io big chunk format is a 960 by 960 pixel tile split into
fifteen by fifteen 64 by 64 pixel chunks. Each byte holds two 4-bit color
codes, high nibble first; chunks are stored in row-major order and the
pixels within each chunk are also row-major. There is no header and no
compression so a big chunk is exactly 460800 bytes.
*/
package tile

import (
	"bytes"
	"context"
	"image"
	"io"

	"github.com/bodgit/pxct/canvas"
)

// Source returns the raw bytes of a tile. Implementations return
// canvas.ErrTileNotFound for a missing tile and a *canvas.TransportError
// for anything else.
type Source interface {
	Get(ctx context.Context, tile image.Point) ([]byte, error)
}

// Decoder decodes the bytes of one tile.
type Decoder func(r io.Reader) (image.Image, error)

// Fetcher combines a Source and a Decoder into a canvas.Fetcher.
type Fetcher struct {
	Source Source
	Decode Decoder
}

// Fetch implements canvas.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, t image.Point) (image.Image, error) {
	b, err := f.Source.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	m, err := f.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &canvas.TransportError{Tile: t, Err: err}
	}
	return m, nil
}
