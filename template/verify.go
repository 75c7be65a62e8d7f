package template

import (
	"image"

	"github.com/bodgit/pxct/canvas"
	"github.com/bodgit/pxct/palette"
)

// Result is the outcome of comparing a template against a canvas.
type Result struct {
	Errors     []bool
	ErrorCount int
	PixelCount int
	Generation uint64
}

// Diff compares the expected pixels against r without modifying the
// template. It returns a *canvas.OutOfBoundsError if r does not cover the
// template's area.
func (t *Template) Diff(r *canvas.Region) (*Result, error) {
	if err := r.Check(t.Area); err != nil {
		return nil, err
	}

	w, h := t.Width(), t.Height()
	res := &Result{
		Errors: make([]bool, len(t.pixels)),
	}

	for y := 0; y < h; y++ {
		expected := t.pixels[y*w : y*w+w]
		i := r.PixOffset(image.Pt(t.Area.Min.X, t.Area.Min.Y+y))
		current := r.Pix[i : i+w]
		mask := res.Errors[y*w : y*w+w]
		for x, target := range expected {
			if target == palette.Transparent {
				continue
			}
			res.PixelCount++
			if target != current[x] {
				mask[x] = true
				res.ErrorCount++
			}
		}
	}

	return res, nil
}

// Apply stores res as the template's current state unless a result from a
// newer generation has already been applied. It reports whether res was
// stored. The mask is copied so res may be reused afterwards.
func (t *Template) Apply(res *Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if res.Generation < t.generation || len(res.Errors) != len(t.pixels) {
		return false
	}

	t.errors = append(t.errors[:0:0], res.Errors...)
	t.errorCount = res.ErrorCount
	t.pixelCount = res.PixelCount
	t.generation = res.Generation

	return true
}

// Verify diffs the template against r and applies the result at the
// template's current generation.
func (t *Template) Verify(r *canvas.Region) error {
	res, err := t.Diff(r)
	if err != nil {
		return err
	}
	res.Generation = t.Generation()
	t.Apply(res)
	return nil
}
