package pxct

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bodgit/pxct/grid"
	"github.com/bodgit/pxct/tile"
)

// Tile formats
const (
	FormatChunk = "chunk"
	FormatImage = "image"
)

// Config holds the knobs describing the remote tiling scheme and how hard
// to work it.
type Config struct {
	// TileSize is the width in pixels of each tile.
	TileSize int
	// OriginOffset is added to canvas coordinates before dividing by
	// TileSize.
	OriginOffset int
	// TileURL locates a tile, {x} and {y} are replaced by the tile
	// coordinates multiplied by TileScale.
	TileURL   string
	TileScale int
	// TileFormat is either FormatChunk or FormatImage.
	TileFormat string
	// ChunkSize is the width of the chunks within a FormatChunk tile.
	ChunkSize int

	// Workers decode templates, FetchWorkers fetch tiles.
	Workers      int
	FetchWorkers int

	// CacheTTL is how long a cached tile is reused, zero disables the
	// cache.
	CacheTTL time.Duration

	// LinkURL links to a canvas position, {x} and {y} are replaced by the
	// template's origin.
	LinkURL string

	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns the configuration for the pixelcanvas.io big chunk
// API.
func DefaultConfig() Config {
	return Config{
		TileSize:     tile.BigChunk.Size(),
		OriginOffset: 448,
		TileURL:      "https://api.pixelcanvas.io/api/bigchunk/{x}.{y}.bmp",
		TileScale:    tile.BigChunk.Chunks,
		TileFormat:   FormatChunk,
		ChunkSize:    tile.BigChunk.ChunkSize,
		Workers:      runtime.NumCPU(),
		FetchWorkers: 4,
		CacheTTL:     time.Minute,
		LinkURL:      "https://pixelcanvas.io/@{x},{y}",
		UserAgent:    "pxct/1.0.0",
		Timeout:      30 * time.Second,
	}
}

// Mapper returns the coordinate mapper for the tiling scheme.
func (c Config) Mapper() grid.Mapper {
	return grid.Mapper{TileSize: c.TileSize, OriginOffset: c.OriginOffset}
}

// Layout returns the chunk layout of a FormatChunk tile.
func (c Config) Layout() tile.Layout {
	if c.ChunkSize <= 0 {
		return tile.Layout{}
	}
	return tile.Layout{ChunkSize: c.ChunkSize, Chunks: c.TileSize / c.ChunkSize}
}

// Decoder returns the tile decoder for TileFormat.
func (c Config) Decoder() (tile.Decoder, error) {
	switch c.TileFormat {
	case FormatChunk:
		return tile.NewChunkDecoder(c.Layout())
	case FormatImage:
		return tile.DecodeImage, nil
	default:
		return nil, fmt.Errorf("unknown tile format %q", c.TileFormat)
	}
}

// Validate checks the configuration is consistent.
func (c Config) Validate() error {
	if err := c.Mapper().Validate(); err != nil {
		return err
	}
	if c.TileFormat == FormatChunk && (c.ChunkSize <= 0 || c.TileSize%c.ChunkSize != 0) {
		return errors.New("tile size must be a multiple of the chunk size")
	}
	if _, err := c.Decoder(); err != nil {
		return err
	}
	if c.TileScale < 0 {
		return errors.New("tile scale must not be negative")
	}
	return nil
}
