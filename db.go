package pxct

import (
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"image"
	"io/ioutil"
	"log"
	"time"

	"github.com/bodgit/pxct/template"
	"github.com/bodgit/pxct/tile"
	_ "github.com/mattn/go-sqlite3"
)

// DB persists fetched tiles and the history of template checks.
type DB struct {
	db *sql.DB
}

// Check is one recorded verification of a template.
type Check struct {
	Name      string
	Filename  string
	CheckedAt time.Time
	Pixels    int
	Errors    int
}

// NewDB opens or creates the sqlite database in file.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Tile workers write concurrently, sqlite only allows one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tile (id INTEGER PRIMARY KEY NOT NULL, source TEXT NOT NULL, x INTEGER NOT NULL, y INTEGER NOT NULL, sha1 TEXT NOT NULL, fetched_at INTEGER NOT NULL, data BLOB NOT NULL, UNIQUE(source, x, y))"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS template (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL, filename TEXT NOT NULL UNIQUE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS check_result (template_id INTEGER NOT NULL, checked_at INTEGER NOT NULL, pixels INTEGER NOT NULL, errors INTEGER NOT NULL, FOREIGN KEY(template_id) REFERENCES template(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// CachedTile returns the bytes of tile t from source if they were stored
// after notBefore.
func (db *DB) CachedTile(source string, t image.Point, notBefore time.Time) ([]byte, bool, error) {
	var data []byte
	var fetchedAt int64
	switch err := db.db.QueryRow("SELECT data, fetched_at FROM tile WHERE source = ? AND x = ? AND y = ?", source, t.X, t.Y).Scan(&data, &fetchedAt); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		if time.Unix(0, fetchedAt).Before(notBefore) {
			return nil, false, nil
		}
		return data, true, nil
	default:
		return nil, false, err
	}
}

// StoreTile stores the bytes of tile t from source, replacing any previous
// copy.
func (db *DB) StoreTile(source string, t image.Point, data []byte, fetchedAt time.Time) error {
	sha := fmt.Sprintf("%X", sha1.Sum(data))
	if _, err := db.db.Exec("INSERT OR REPLACE INTO tile (source, x, y, sha1, fetched_at, data) VALUES (?, ?, ?, ?, ?, ?)", source, t.X, t.Y, sha, fetchedAt.UnixNano(), data); err != nil {
		return err
	}
	return nil
}

// PurgeTiles removes every tile fetched before notBefore and returns how
// many were removed.
func (db *DB) PurgeTiles(notBefore time.Time) (int64, error) {
	result, err := db.db.Exec("DELETE FROM tile WHERE fetched_at < ?", notBefore.UnixNano())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (db *DB) addTemplate(name, filename string) (int64, error) {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM template WHERE filename = ?", filename).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO template (name, filename) VALUES (?, ?)", name, filename)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// RecordCheck stores the current counts of t.
func (db *DB) RecordCheck(t *template.Template, at time.Time) error {
	id, err := db.addTemplate(t.Name, t.Filename)
	if err != nil {
		return err
	}
	if _, err := db.db.Exec("INSERT INTO check_result (template_id, checked_at, pixels, errors) VALUES (?, ?, ?, ?)", id, at.UnixNano(), t.PixelCount(), t.ErrorCount()); err != nil {
		return err
	}
	return nil
}

// History returns up to limit checks of the template with the given name,
// most recent first. An empty name returns checks of every template.
func (db *DB) History(name string, limit int) ([]Check, error) {
	rows, err := db.db.Query("SELECT t.name, t.filename, c.checked_at, c.pixels, c.errors FROM check_result AS c JOIN template AS t ON c.template_id = t.id WHERE ? = '' OR t.name = ? ORDER BY c.checked_at DESC, c.rowid DESC LIMIT ?", name, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []Check
	for rows.Next() {
		var c Check
		var at int64
		if err := rows.Scan(&c.Name, &c.Filename, &at, &c.Pixels, &c.Errors); err != nil {
			return nil, err
		}
		c.CheckedAt = time.Unix(0, at)
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// CachedSource serves tiles from the database while they are younger than
// TTL, falling back to Source and storing what it returns.
type CachedSource struct {
	DB     *DB
	Source tile.Source
	// Key identifies the source within the cache, usually its URL.
	Key string
	TTL time.Duration
	// Decode, if set, must accept a tile before it is stored.
	Decode tile.Decoder
	Logger *log.Logger

	now func() time.Time
}

func (s *CachedSource) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return s.Logger
}

func (s *CachedSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Get implements tile.Source.
func (s *CachedSource) Get(ctx context.Context, t image.Point) ([]byte, error) {
	now := s.clock()

	if s.TTL > 0 {
		b, ok, err := s.DB.CachedTile(s.Key, t, now.Add(-s.TTL))
		switch {
		case err != nil:
			s.logger().Printf("Reading tile %d,%d from cache: %v\n", t.X, t.Y, err)
		case ok:
			s.logger().Printf("Tile %d,%d served from cache\n", t.X, t.Y)
			return b, nil
		}
	}

	b, err := s.Source.Get(ctx, t)
	if err != nil {
		return nil, err
	}

	if s.Decode != nil {
		if _, err := s.Decode(bytes.NewReader(b)); err != nil {
			s.logger().Printf("Not caching tile %d,%d: %v\n", t.X, t.Y, err)
			return b, nil
		}
	}

	if err := s.DB.StoreTile(s.Key, t, b, now); err != nil {
		s.logger().Printf("Caching tile %d,%d: %v\n", t.X, t.Y, err)
	}

	return b, nil
}
