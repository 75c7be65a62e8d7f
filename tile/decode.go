package tile

import (
	"image"
	_ "image/gif"  // register gif
	_ "image/jpeg" // register jpeg
	_ "image/png"  // register png
	"io"

	_ "golang.org/x/image/bmp" // register bmp
)

// DecodeImage decodes a tile served as a regular png, gif, jpeg or bmp
// image.
func DecodeImage(r io.Reader) (image.Image, error) {
	m, _, err := image.Decode(r)
	return m, err
}
