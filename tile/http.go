package tile

import (
	"context"
	"fmt"
	"image"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bodgit/pxct/canvas"
)

// HTTPSource fetches tiles from a remote tile API. URL may contain {x} and
// {y} placeholders which are replaced by the tile coordinates multiplied by
// Scale.
type HTTPSource struct {
	Client    *http.Client
	URL       string
	Scale     int
	UserAgent string
}

// NewHTTPSource returns an HTTPSource with a client tuned for many
// concurrent requests to the same host.
func NewHTTPSource(url string, scale int, userAgent string, timeout time.Duration) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTPSource{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		URL:       url,
		Scale:     scale,
		UserAgent: userAgent,
	}
}

// TileURL returns the URL of tile t.
func (s *HTTPSource) TileURL(t image.Point) string {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return strings.NewReplacer(
		"{x}", strconv.Itoa(t.X*scale),
		"{y}", strconv.Itoa(t.Y*scale),
	).Replace(s.URL)
}

// Get implements Source.
func (s *HTTPSource) Get(ctx context.Context, t image.Point) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.TileURL(t), nil)
	if err != nil {
		return nil, &canvas.TransportError{Tile: t, Err: err}
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &canvas.TransportError{Tile: t, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, canvas.ErrTileNotFound
	default:
		return nil, &canvas.TransportError{Tile: t, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &canvas.TransportError{Tile: t, Err: err}
	}

	return b, nil
}
