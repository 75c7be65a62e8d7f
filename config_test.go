package pxct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 960, c.TileSize)
	assert.Equal(t, 448, c.OriginOffset)
	assert.Equal(t, 15, c.Layout().Chunks)
	assert.Equal(t, 960, c.Mapper().TileSize)
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	c.TileSize = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.ChunkSize = 100
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.TileFormat = "webp"
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.TileFormat = FormatImage
	c.ChunkSize = 0
	assert.NoError(t, c.Validate())

	c = DefaultConfig()
	c.TileScale = -1
	assert.Error(t, c.Validate())
}
