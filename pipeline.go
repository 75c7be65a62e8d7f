package pxct

import (
	"context"
	"errors"
	"image"
	_ "image/gif"  // register gif
	_ "image/jpeg" // register jpeg
	_ "image/png"  // register png
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/pxct/internal/pipeline"
	"github.com/bodgit/pxct/template"
)

// Skipped is a template file that could not be loaded.
type Skipped struct {
	Filename string
	Err      error
}

func (s Skipped) Error() string {
	return s.Filename + ": " + s.Err.Error()
}

func (s Skipped) Unwrap() error {
	return s.Err
}

func (c *Checker) findTemplates(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			if !strings.EqualFold(filepath.Ext(file), ".png") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

func loadTemplate(file string) (*template.Template, error) {
	name, origin, err := ParseFilename(file)
	if err != nil {
		return nil, &template.MalformedError{Filename: file, Err: err}
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, &template.MalformedError{Filename: file, Err: err}
	}

	return template.FromImage(name, file, origin, m)
}

type loaded struct {
	sync.Mutex
	templates []*template.Template
	skipped   []Skipped
}

func (c *Checker) templateWorker(ctx context.Context, in <-chan string, l *loaded) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			t, err := loadTemplate(file)

			l.Lock()
			if err != nil {
				l.skipped = append(l.skipped, Skipped{file, err})
			} else {
				l.templates = append(l.templates, t)
			}
			l.Unlock()

			if err != nil {
				c.logger.Printf("Template \"%s\" could not be imported: %v\n", file, err)
			}
		}
	}()
	return errc
}

// LoadTemplates replaces the loaded templates with every Name_X_Y.png file
// found under path. Files that cannot be loaded are skipped and returned;
// only a failure to walk path is an error.
func (c *Checker) LoadTemplates(ctx context.Context, path string) ([]Skipped, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc := c.findTemplates(ctx, dir)
	errcList = append(errcList, errc)

	workers := c.config.Workers
	if workers <= 0 {
		workers = 1
	}

	var l loaded
	for i := 0; i < workers; i++ {
		errcList = append(errcList, c.templateWorker(ctx, files, &l))
	}

	if err := pipeline.Wait(errcList...); err != nil {
		return nil, err
	}

	c.SetTemplates(l.templates)

	return l.skipped, nil
}
