package pxct

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

var errFilename = errors.New("expected NAME_X_Y")

// ParseFilename splits a template filename of the form Name_X_Y.png into
// a display name and the canvas position of its top-left pixel.
func ParseFilename(file string) (string, image.Point, error) {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	parts := strings.Split(base, "_")
	if len(parts) != 3 || parts[0] == "" {
		return "", image.Point{}, errFilename
	}

	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", image.Point{}, fmt.Errorf("invalid x coordinate: %w", err)
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", image.Point{}, fmt.Errorf("invalid y coordinate: %w", err)
	}

	return spaceWords(parts[0]), image.Pt(x, y), nil
}

// spaceWords inserts a space before each uppercase letter, so TheCastle
// becomes The Castle.
func spaceWords(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
