package canvas

import (
	"context"
	"errors"
	"image"
	"io/ioutil"
	"log"
	"runtime"

	"github.com/bodgit/pxct/grid"
	"github.com/bodgit/pxct/internal/pipeline"
	"github.com/bodgit/pxct/palette"
)

var errNoImage = errors.New("canvas: fetcher returned no image")

// Builder fetches tiles and assembles them into a Region.
type Builder struct {
	Mapper  grid.Mapper
	Fetcher Fetcher

	// Workers is the number of concurrent tile fetches, defaulting to
	// the number of CPUs.
	Workers int

	Logger *log.Logger
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return b.Logger
}

func (b *Builder) produceTiles(ctx context.Context, tiles image.Rectangle, needed func(image.Point) bool) (<-chan image.Point, <-chan error) {
	out := make(chan image.Point)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, t := range grid.Tiles(tiles) {
			if needed != nil && !needed(t) {
				continue
			}
			select {
			case out <- t:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

func (b *Builder) tileWorker(ctx context.Context, r *Region, in <-chan image.Point) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for t := range in {
			if ctx.Err() != nil {
				continue
			}
			m, err := b.Fetcher.Fetch(ctx, t)
			switch {
			case ctx.Err() != nil:
			case err == nil && m == nil:
				b.logger().Printf("Tile %d,%d failed, leaving it transparent: %v\n", t.X, t.Y, &TransportError{Tile: t, Err: errNoImage})
			case err == nil:
				b.decodeTile(r, t, m)
			case errors.Is(err, ErrTileNotFound):
				b.logger().Printf("Tile %d,%d not found, leaving it transparent\n", t.X, t.Y)
			default:
				b.logger().Printf("Tile %d,%d failed, leaving it transparent: %v\n", t.X, t.Y, err)
			}
		}
		if err := ctx.Err(); err != nil {
			errc <- err
		}
	}()
	return errc
}

// decodeTile writes m into the tile's footprint of r. Each worker only
// touches the pixels of the tile it fetched so no locking is needed.
func (b *Builder) decodeTile(r *Region, t image.Point, m image.Image) {
	dst := b.Mapper.TileBounds(t)
	src := m.Bounds()
	if src.Dx() != dst.Dx() || src.Dy() != dst.Dy() {
		b.logger().Printf("Tile %d,%d is %dx%d, expected %dx%d\n", t.X, t.Y, src.Dx(), src.Dy(), dst.Dx(), dst.Dy())
	}
	w, h := min(src.Dx(), dst.Dx()), min(src.Dy(), dst.Dy())

	codes := palette.Codes(m)
	for y := 0; y < h; y++ {
		i := r.PixOffset(image.Pt(dst.Min.X, dst.Min.Y+y))
		copy(r.Pix[i:i+w], codes[y*src.Dx():y*src.Dx()+w])
	}
}

// Build allocates a Region covering the tile range tiles and populates it
// by fetching every tile for which needed returns true; a nil needed
// fetches them all. Tiles that are skipped, missing or fail to fetch are
// left Transparent so the build always completes unless ctx is cancelled,
// in which case the partial region is discarded and ctx.Err() returned.
func (b *Builder) Build(ctx context.Context, tiles image.Rectangle, needed func(image.Point) bool) (*Region, error) {
	if err := b.Mapper.Validate(); err != nil {
		return nil, err
	}

	r := NewRegion(b.Mapper.CanvasBounds(tiles))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var errcList []<-chan error

	in, errc := b.produceTiles(ctx, tiles, needed)
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errcList = append(errcList, b.tileWorker(ctx, r, in))
	}

	if err := pipeline.Wait(errcList...); err != nil {
		return nil, err
	}

	return r, nil
}
