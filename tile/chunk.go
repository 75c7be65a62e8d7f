package tile

import (
	"errors"
	"image"
	"io"

	"github.com/bodgit/pxct/palette"
)

var (
	errNotEnough   = errors.New("tile: not enough chunk data")
	errLayout      = errors.New("tile: invalid chunk layout")
	errWrongSize   = errors.New("tile: image is wrong size")
	errTransparent = errors.New("tile: transparent pixels cannot be encoded")
)

// Layout describes a tile made of Chunks by Chunks square chunks, each
// ChunkSize pixels wide.
type Layout struct {
	ChunkSize int
	Chunks    int
}

// BigChunk is the pixelcanvas.io big chunk layout.
var BigChunk = Layout{ChunkSize: 64, Chunks: 15}

// Size returns the width of the tile in pixels.
func (l Layout) Size() int {
	return l.ChunkSize * l.Chunks
}

func (l Layout) pixels() int {
	return l.Size() * l.Size()
}

// Bytes returns the encoded length of a tile.
func (l Layout) Bytes() int {
	return l.pixels() >> 1
}

// Validate checks the layout can be encoded as whole bytes.
func (l Layout) Validate() error {
	if l.ChunkSize <= 0 || l.Chunks <= 0 || l.pixels()%2 != 0 {
		return errLayout
	}
	return nil
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

func upperNibble(b byte) byte {
	return b & 0xf0
}

func lowerNibble(b byte) byte {
	return b & 0x0f
}

// position returns the pixel coordinates of the i'th code in the stream.
func (l Layout) position(i int) (int, int) {
	chunkPixels := l.ChunkSize * l.ChunkSize
	chunk, offset := i/chunkPixels, i%chunkPixels
	cx, cy := chunk%l.Chunks, chunk/l.Chunks
	return cx*l.ChunkSize + offset%l.ChunkSize, cy*l.ChunkSize + offset/l.ChunkSize
}

type decoder struct {
	r      io.Reader
	layout Layout
	image  *image.Paletted
	tmp    []byte
}

func (d *decoder) decode() error {
	d.tmp = make([]byte, d.layout.Bytes())
	if err := readFull(d.r, d.tmp); err != nil {
		if err != io.ErrUnexpectedEOF {
			return err
		}
		return errNotEnough
	}

	size := d.layout.Size()
	d.image = image.NewPaletted(image.Rect(0, 0, size, size), palette.Colors())

	for i, b := range d.tmp {
		x, y := d.layout.position(i << 1)
		d.image.SetColorIndex(x, y, upperNibble(b)>>4)
		x, y = d.layout.position(i<<1 + 1)
		d.image.SetColorIndex(x, y, lowerNibble(b))
	}

	return nil
}

// NewChunkDecoder returns a Decoder for tiles with the given layout. Any
// bytes following the tile are ignored.
func NewChunkDecoder(l Layout) (Decoder, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return func(r io.Reader) (image.Image, error) {
		d := decoder{r: r, layout: l}
		if err := d.decode(); err != nil {
			return nil, err
		}
		return d.image, nil
	}, nil
}

// EncodeChunk writes the Image m to w in the chunk format with layout l.
func EncodeChunk(w io.Writer, l Layout, m image.Image) error {
	if err := l.Validate(); err != nil {
		return err
	}

	b := m.Bounds()
	if b.Dx() != l.Size() || b.Dy() != l.Size() {
		return errWrongSize
	}

	codes := make([]byte, l.pixels())
	for i := range codes {
		x, y := l.position(i)
		code := palette.Lookup(m.At(b.Min.X+x, b.Min.Y+y))
		if code == palette.Transparent {
			return errTransparent
		}
		codes[i] = byte(code)
	}

	out := make([]byte, l.Bytes())
	for i := range out {
		out[i] = codes[i<<1]&0x0f<<4 | codes[i<<1+1]&0x0f
	}

	_, err := w.Write(out)
	return err
}
