package pxct

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilename(t *testing.T) {
	tables := []struct {
		file   string
		name   string
		origin image.Point
		err    bool
	}{
		{"TheCastle_100_200.png", "The Castle", image.Pt(100, 200), false},
		{filepath.Join("templates", "Flag_-5_-7.png"), "Flag", image.Pt(-5, -7), false},
		{"lowercase_0_0.png", "lowercase", image.Pt(0, 0), false},
		{"Missing_1.png", "", image.Point{}, true},
		{"Too_Many_1_2.png", "", image.Point{}, true},
		{"Bad_x_2.png", "", image.Point{}, true},
		{"Bad_1_y.png", "", image.Point{}, true},
		{"_1_2.png", "", image.Point{}, true},
	}

	for _, table := range tables {
		t.Run(table.file, func(t *testing.T) {
			name, origin, err := ParseFilename(table.file)
			if table.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, table.name, name)
			assert.Equal(t, table.origin, origin)
		})
	}
}

func TestSpaceWords(t *testing.T) {
	assert.Equal(t, "", spaceWords(""))
	assert.Equal(t, "A B C", spaceWords("ABC"))
	assert.Equal(t, "Big Red Dog", spaceWords("BigRedDog"))
}
