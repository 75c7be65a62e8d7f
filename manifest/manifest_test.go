package manifest

import (
	"bytes"
	"image"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/bodgit/pxct/palette"
	"github.com/bodgit/pxct/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templates(t *testing.T) []*template.Template {
	t.Helper()
	a, err := template.New("Castle", filepath.Join("templates", "Castle_10_-20.png"), image.Rect(10, -20, 13, -18), make([]palette.Code, 6))
	require.NoError(t, err)
	b, err := template.New("Flag", "Flag_0_0.png", image.Rect(0, 0, 1, 1), make([]palette.Code, 1))
	require.NoError(t, err)
	return []*template.Template{a, b}
}

func TestWrite(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Write(&b, templates(t)))
	assert.JSONEq(t, `[
		{"filename":"Castle_10_-20.png","x":10,"y":-20,"width":3,"height":2},
		{"filename":"Flag_0_0.png","x":0,"y":0,"width":1,"height":1}
	]`, b.String())

	b.Reset()
	require.NoError(t, Write(&b, nil))
	assert.JSONEq(t, `[]`, b.String())
}

func TestWriteFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "minimap", "templates.json")
	require.NoError(t, WriteFile(file, templates(t)))

	b, err := ioutil.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"filename":"Flag_0_0.png"`)
}
