/*
Package pxct checks a set of template images against the live canvas.

It reconstructs the parts of the canvas covered by the templates from
remotely hosted tiles and reports every pixel that no longer matches.
*/
package pxct

import (
	"context"
	"errors"
	"image"
	"io/ioutil"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bodgit/pxct/canvas"
	"github.com/bodgit/pxct/template"
	"github.com/bodgit/pxct/tile"
)

// ErrSuperseded is returned by a refresh that was replaced by a newer one
// before it finished.
var ErrSuperseded = errors.New("pxct: refresh superseded")

// Checker loads templates and verifies them against the canvas.
type Checker struct {
	db      *DB
	logger  *log.Logger
	config  Config
	fetcher canvas.Fetcher

	mu         sync.Mutex
	templates  []*template.Template
	generation uint64
	refreshes  map[uint64]*inflight
}

// inflight is a refresh that has not finished yet.
type inflight struct {
	templates  map[*template.Template]struct{}
	cancel     context.CancelFunc
	superseded bool
}

// coveredBy reports whether every template of the refresh is also in set.
func (r *inflight) coveredBy(set map[*template.Template]struct{}) bool {
	for t := range r.templates {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// New returns a Checker fetching tiles as described by config. db may be
// nil, in which case tiles are never cached and checks are not recorded.
func New(db *DB, logger *log.Logger, config Config) (*Checker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	decode, err := config.Decoder()
	if err != nil {
		return nil, err
	}

	var source tile.Source = tile.NewHTTPSource(config.TileURL, config.TileScale, config.UserAgent, config.Timeout)
	if db != nil && config.CacheTTL > 0 {
		source = &CachedSource{
			DB:     db,
			Source: source,
			Key:    config.TileURL,
			TTL:    config.CacheTTL,
			Decode: decode,
			Logger: logger,
		}
	}

	return NewWithFetcher(db, logger, config, &tile.Fetcher{Source: source, Decode: decode}), nil
}

// NewWithFetcher returns a Checker using f to retrieve tiles.
func NewWithFetcher(db *DB, logger *log.Logger, config Config, f canvas.Fetcher) *Checker {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Checker{
		db:      db,
		logger:  logger,
		config:  config,
		fetcher: f,

		refreshes: make(map[uint64]*inflight),
	}
}

// Templates returns the loaded templates, sorted by name.
func (c *Checker) Templates() []*template.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*template.Template(nil), c.templates...)
}

// SetTemplates replaces the loaded templates.
func (c *Checker) SetTemplates(templates []*template.Template) {
	sorted := append([]*template.Template(nil), templates...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Filename < sorted[j].Filename
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = sorted
}

// Find returns the loaded template with the given name or filename.
func (c *Checker) Find(name string) *template.Template {
	for _, t := range c.Templates() {
		if strings.EqualFold(t.Name, name) || t.Filename == name || filepath.Base(t.Filename) == name {
			return t
		}
	}
	return nil
}

// begin starts a new refresh of templates. Any refresh still in flight
// whose templates are all covered by this one is cancelled.
func (c *Checker) begin(ctx context.Context, templates []*template.Template) (context.Context, uint64) {
	set := make(map[*template.Template]struct{}, len(templates))
	for _, t := range templates {
		set[t] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.refreshes {
		if r.coveredBy(set) {
			r.superseded = true
			r.cancel()
		}
	}
	c.generation++

	ctx, cancel := context.WithCancel(ctx)
	c.refreshes[c.generation] = &inflight{
		templates: set,
		cancel:    cancel,
	}
	return ctx, c.generation
}

func (c *Checker) end(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.refreshes[generation]; ok {
		r.cancel()
		delete(c.refreshes, generation)
	}
}

func (c *Checker) superseded(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.refreshes[generation]
	return ok && r.superseded
}

// Refresh rebuilds the canvas under every loaded template and verifies
// them all against it. Starting a refresh that covers every one of these
// templates cancels this one, which then returns ErrSuperseded without
// touching any template. Refreshes of other templates run alongside it;
// each template keeps the result of the newest refresh that reached it.
func (c *Checker) Refresh(ctx context.Context) error {
	return c.refresh(ctx, c.Templates())
}

// RefreshTemplate rebuilds only the tiles under t and verifies it.
func (c *Checker) RefreshTemplate(ctx context.Context, t *template.Template) error {
	return c.refresh(ctx, []*template.Template{t})
}

func (c *Checker) refresh(ctx context.Context, templates []*template.Template) error {
	if len(templates) == 0 {
		return nil
	}

	ctx, generation := c.begin(ctx, templates)
	defer c.end(generation)

	r, err := c.Canvas(ctx, templates)
	if err != nil {
		if c.superseded(generation) {
			return ErrSuperseded
		}
		return err
	}

	results := make([]*template.Result, len(templates))
	for i, t := range templates {
		res, err := t.Diff(r)
		if err != nil {
			return err
		}
		res.Generation = generation
		results[i] = res
	}

	if c.superseded(generation) {
		return ErrSuperseded
	}

	now := time.Now()
	for i, t := range templates {
		if !t.Apply(results[i]) {
			continue
		}
		if c.db != nil {
			if err := c.db.RecordCheck(t, now); err != nil {
				c.logger.Printf("Recording check of \"%s\": %v\n", t.Name, err)
			}
		}
	}

	return nil
}

// Canvas builds the part of the canvas covering templates. Tiles in the
// bounding box that no template overlaps are left transparent.
func (c *Checker) Canvas(ctx context.Context, templates []*template.Template) (*canvas.Region, error) {
	mapper := c.config.Mapper()

	areas := make([]image.Rectangle, 0, len(templates))
	for _, t := range templates {
		areas = append(areas, t.Area)
	}
	tiles := mapper.UnionBoundingBox(areas...)

	needed := func(p image.Point) bool {
		b := mapper.TileBounds(p)
		for _, area := range areas {
			if b.Overlaps(area) {
				return true
			}
		}
		return false
	}

	b := canvas.Builder{
		Mapper:  mapper,
		Fetcher: c.fetcher,
		Workers: c.config.FetchWorkers,
		Logger:  c.logger,
	}

	start := time.Now()
	r, err := b.Build(ctx, tiles, needed)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("Built canvas %v from %d tiles in %v\n", r.Bounds(), tiles.Dx()*tiles.Dy(), time.Since(start))

	return r, nil
}

// Summary is the total state of the loaded templates.
type Summary struct {
	Templates int
	Damaged   int
	Pixels    int
	Good      int
	Errors    int
}

// Summary totals the counts across every loaded template.
func (c *Checker) Summary() Summary {
	var s Summary
	for _, t := range c.Templates() {
		s.Templates++
		s.Pixels += t.PixelCount()
		s.Good += t.GoodPixelCount()
		s.Errors += t.ErrorCount()
		if t.HasErrors() {
			s.Damaged++
		}
	}
	return s
}

// Link returns the canvas link for the top-left pixel of t.
func (c *Checker) Link(t *template.Template) string {
	return strings.NewReplacer(
		"{x}", strconv.Itoa(t.Area.Min.X),
		"{y}", strconv.Itoa(t.Area.Min.Y),
	).Replace(c.config.LinkURL)
}

// Filter returns the templates whose name contains search, ignoring case,
// optionally only those with damage.
func Filter(templates []*template.Template, search string, onlyDamaged bool) []*template.Template {
	search = strings.ToLower(strings.TrimSpace(search))

	var filtered []*template.Template
	for _, t := range templates {
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		if onlyDamaged && !t.HasErrors() {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
