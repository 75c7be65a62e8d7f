/*
Package manifest writes the JSON manifest of template placements consumed by
the minimap.
*/
package manifest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/pxct/template"
)

// Filename is the conventional location of the manifest.
const Filename = "templates/minimap/templates.json"

// Entry is the placement of one template.
type Entry struct {
	Filename string `json:"filename"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// FromTemplates projects each template into an Entry.
func FromTemplates(templates []*template.Template) []Entry {
	entries := make([]Entry, 0, len(templates))
	for _, t := range templates {
		entries = append(entries, Entry{
			Filename: filepath.Base(t.Filename),
			X:        t.Area.Min.X,
			Y:        t.Area.Min.Y,
			Width:    t.Area.Dx(),
			Height:   t.Area.Dy(),
		})
	}
	return entries
}

// Write encodes the manifest for templates to w as a JSON array.
func Write(w io.Writer, templates []*template.Template) error {
	return json.NewEncoder(w).Encode(FromTemplates(templates))
}

// WriteFile writes the manifest to file, creating parent directories as
// needed.
func WriteFile(file string, templates []*template.Template) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := Write(f, templates); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
