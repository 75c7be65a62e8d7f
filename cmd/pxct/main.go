package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/bodgit/pxct"
	"github.com/bodgit/pxct/compare"
	"github.com/bodgit/pxct/manifest"
	"github.com/bodgit/pxct/template"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB        = "pxct.db"
	defaultTemplates = "templates"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConfig(c *cli.Context) pxct.Config {
	config := pxct.DefaultConfig()
	config.TileSize = c.Int("tile-size")
	config.OriginOffset = c.Int("origin-offset")
	config.TileURL = c.String("tile-url")
	config.TileScale = c.Int("tile-scale")
	config.TileFormat = c.String("tile-format")
	config.ChunkSize = c.Int("chunk-size")
	config.Workers = c.Int("workers")
	config.FetchWorkers = c.Int("fetch-workers")
	config.CacheTTL = c.Duration("cache-ttl")
	config.LinkURL = c.String("link-url")
	config.UserAgent = c.String("user-agent")
	config.Timeout = c.Duration("timeout")
	return config
}

type session struct {
	checker *pxct.Checker
	db      *pxct.DB
	logger  *log.Logger
}

func (s *session) Close() error {
	return s.db.Close()
}

func newSession(c *cli.Context) (*session, error) {
	logger := newLogger(c)

	db, err := pxct.NewDB(c.String("db"))
	if err != nil {
		return nil, err
	}

	checker, err := pxct.New(db, logger, newConfig(c))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &session{
		checker: checker,
		db:      db,
		logger:  logger,
	}, nil
}

func (s *session) load(c *cli.Context) error {
	skipped, err := s.checker.LoadTemplates(c.Context, c.String("templates"))
	if err != nil {
		return err
	}
	for _, skip := range skipped {
		fmt.Fprintf(c.App.ErrWriter, "Template %s could not be imported: %v\n", skip.Filename, skip.Err)
	}
	return nil
}

func (s *session) find(c *cli.Context, name string) (*template.Template, error) {
	if err := s.load(c); err != nil {
		return nil, err
	}
	t := s.checker.Find(name)
	if t == nil {
		return nil, fmt.Errorf("no template named %q", name)
	}
	return t, nil
}

func writePNG(file string, m image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := png.Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	return m, err
}

func main() {
	app := cli.NewApp()

	app.Name = "pxct"
	app.Usage = "pixel canvas template damage checker"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	defaults := pxct.DefaultConfig()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PXCT_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.StringFlag{
			Name:    "templates",
			Aliases: []string{"t"},
			EnvVars: []string{"PXCT_TEMPLATES"},
			Value:   filepath.Join(cwd, defaultTemplates),
			Usage:   "directory of NAME_X_Y.png templates",
		},
		&cli.IntFlag{
			Name:    "tile-size",
			EnvVars: []string{"PXCT_TILE_SIZE"},
			Value:   defaults.TileSize,
			Usage:   "pixels per tile edge",
		},
		&cli.IntFlag{
			Name:    "origin-offset",
			EnvVars: []string{"PXCT_ORIGIN_OFFSET"},
			Value:   defaults.OriginOffset,
			Usage:   "offset from canvas to tile grid coordinates",
		},
		&cli.StringFlag{
			Name:    "tile-url",
			EnvVars: []string{"PXCT_TILE_URL"},
			Value:   defaults.TileURL,
			Usage:   "tile URL, {x} and {y} are replaced with the scaled tile coordinates",
		},
		&cli.IntFlag{
			Name:    "tile-scale",
			EnvVars: []string{"PXCT_TILE_SCALE"},
			Value:   defaults.TileScale,
			Usage:   "multiplier applied to tile coordinates in the tile URL",
		},
		&cli.StringFlag{
			Name:    "tile-format",
			EnvVars: []string{"PXCT_TILE_FORMAT"},
			Value:   defaults.TileFormat,
			Usage:   "tile encoding, \"chunk\" or \"image\"",
		},
		&cli.IntFlag{
			Name:    "chunk-size",
			EnvVars: []string{"PXCT_CHUNK_SIZE"},
			Value:   defaults.ChunkSize,
			Usage:   "pixels per chunk edge within a chunk tile",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"PXCT_WORKERS"},
			Value:   defaults.Workers,
			Usage:   "number of templates decoded concurrently",
		},
		&cli.IntFlag{
			Name:    "fetch-workers",
			EnvVars: []string{"PXCT_FETCH_WORKERS"},
			Value:   defaults.FetchWorkers,
			Usage:   "number of tiles fetched concurrently",
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			EnvVars: []string{"PXCT_CACHE_TTL"},
			Value:   defaults.CacheTTL,
			Usage:   "reuse cached tiles younger than this, 0 disables the cache",
		},
		&cli.StringFlag{
			Name:    "link-url",
			EnvVars: []string{"PXCT_LINK_URL"},
			Value:   defaults.LinkURL,
			Usage:   "canvas link, {x} and {y} are replaced with the template position",
		},
		&cli.StringFlag{
			Name:    "user-agent",
			EnvVars: []string{"PXCT_USER_AGENT"},
			Value:   defaults.UserAgent,
			Usage:   "user agent sent when fetching tiles",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			EnvVars: []string{"PXCT_TIMEOUT"},
			Value:   defaults.Timeout,
			Usage:   "timeout for each tile request",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "check",
			Usage:       "Check every template against the canvas",
			Description: "",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "search",
					Usage: "only list templates whose name contains this",
				},
				&cli.BoolFlag{
					Name:  "damaged",
					Usage: "only list damaged templates",
				},
			},
			Action: func(c *cli.Context) error {
				s, err := newSession(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.Close()

				if err := s.load(c); err != nil {
					return cli.Exit(err, 1)
				}

				if err := s.checker.Refresh(c.Context); err != nil {
					return cli.Exit(err, 1)
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tX\tY\tPIXELS\tGOOD\tDAMAGED")
				for _, t := range pxct.Filter(s.checker.Templates(), c.String("search"), c.Bool("damaged")) {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", t.Name, t.Area.Min.X, t.Area.Min.Y, t.PixelCount(), t.GoodPixelCount(), t.ErrorCount())
				}
				if err := w.Flush(); err != nil {
					return cli.Exit(err, 1)
				}

				summary := s.checker.Summary()
				fmt.Fprintf(c.App.Writer, "We currently hold %d pixels with %d damages.\n", summary.Good, summary.Errors)

				return nil
			},
		},
		{
			Name:        "compare",
			Usage:       "Render a template next to its damage",
			Description: "",
			ArgsUsage:   "TEMPLATE FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "output pixels per template pixel",
				},
				&cli.BoolFlag{
					Name:  "grid",
					Usage: "draw a pixel grid when scaled",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := newSession(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.Close()

				t, err := s.find(c, c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := s.checker.RefreshTemplate(c.Context, t); err != nil {
					return cli.Exit(err, 1)
				}

				m := compare.Render(t, compare.Options{Scale: c.Int("scale"), Grid: c.Bool("grid")})
				if err := writePNG(c.Args().Get(1), m); err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "%s: %d of %d pixels damaged\n", t.Name, t.ErrorCount(), t.PixelCount())

				return nil
			},
		},
		{
			Name:        "canvas",
			Usage:       "Save the canvas under every template",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := newSession(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.Close()

				if err := s.load(c); err != nil {
					return cli.Exit(err, 1)
				}

				r, err := s.checker.Canvas(c.Context, s.checker.Templates())
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := writePNG(c.Args().First(), r.Image()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "manifest",
			Usage:       "Write the minimap JSON manifest",
			Description: "",
			ArgsUsage:   "[FILE]",
			Action: func(c *cli.Context) error {
				s, err := newSession(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.Close()

				if err := s.load(c); err != nil {
					return cli.Exit(err, 1)
				}

				file := manifest.Filename
				if c.NArg() > 0 {
					file = c.Args().First()
				}

				if err := manifest.WriteFile(file, s.checker.Templates()); err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "%s created.\n", file)

				return nil
			},
		},
		{
			Name:        "convert",
			Usage:       "Reduce artwork to canvas colors",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				m, err := readImage(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := writePNG(c.Args().Get(1), template.Convert(m)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "history",
			Usage:       "List previous checks",
			Description: "",
			ArgsUsage:   "[TEMPLATE]",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Value: 20,
					Usage: "maximum number of checks to list",
				},
			},
			Action: func(c *cli.Context) error {
				db, err := pxct.NewDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				checks, err := db.History(c.Args().First(), c.Int("limit"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CHECKED\tNAME\tPIXELS\tDAMAGED")
				for _, check := range checks {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", check.CheckedAt.Format(time.RFC3339), check.Name, check.Pixels, check.Errors)
				}
				if err := w.Flush(); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "purge",
			Usage:       "Remove cached tiles older than the cache TTL",
			Description: "",
			Action: func(c *cli.Context) error {
				db, err := pxct.NewDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				n, err := db.PurgeTiles(time.Now().Add(-c.Duration("cache-ttl")))
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintf(c.App.Writer, "%d tiles removed.\n", n)

				return nil
			},
		},
		{
			Name:        "link",
			Usage:       "Print the canvas link of a template",
			Description: "",
			ArgsUsage:   "TEMPLATE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := newSession(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.Close()

				t, err := s.find(c, c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Fprintln(c.App.Writer, s.checker.Link(t))

				return nil
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
