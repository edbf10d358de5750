// Package probe issues metadata-only, cache-defeating HEAD requests against
// audio file paths on the game server.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/cachebust"
)

// ErrTransport is returned by Stat when the request could not be completed.
var ErrTransport = errors.New("probe transport failure")

const defaultTimeout = 10 * time.Second

// Result is the outcome of a metadata probe.
type Result struct {
	Path         string
	Status       int
	OK           bool   // HTTP 2xx
	LastModified string // empty when the server sends none
}

// Interface is the prober contract used by the census and the change detector.
type Interface interface {
	// Exists reports whether path answers with an ok status.
	// It never fails: transport errors count as "does not exist".
	Exists(ctx context.Context, path string) bool
	// Stat returns the probe result, or an error wrapping ErrTransport.
	Stat(ctx context.Context, path string) (Result, error)
}

// Prober probes paths relative to a base URL.
type Prober struct {
	base       *url.URL
	httpClient *http.Client
}

// Verify Prober implements Interface at compile time.
var _ Interface = (*Prober)(nil)

// New creates a prober for paths relative to baseURL.
func New(baseURL string, timeout time.Duration) (*Prober, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{
		base: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Resolve turns a layout path into an absolute URL string.
func (p *Prober) Resolve(rawPath string) string {
	return Resolve(p.base, rawPath)
}

// Resolve turns a path relative to base into an absolute URL string.
func Resolve(base *url.URL, rawPath string) string {
	ref, err := url.Parse(rawPath)
	if err != nil {
		return base.String() + rawPath
	}
	return base.ResolveReference(ref).String()
}

// Exists reports whether path exists on the server. Fails closed.
func (p *Prober) Exists(ctx context.Context, path string) bool {
	res, err := p.Stat(ctx, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("probe failed, treating as missing")
		return false
	}
	return res.OK
}

// Stat issues a HEAD request for path with caching disabled.
func (p *Prober) Stat(ctx context.Context, path string) (Result, error) {
	reqURL := cachebust.URL(p.Resolve(path), cachebust.ParamNoCache)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, reqURL, http.NoBody)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("%w: create request: %w", ErrTransport, err)
	}
	req.Header.Set("Cache-Control", "no-store, no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	res := Result{
		Path:         path,
		Status:       resp.StatusCode,
		OK:           resp.StatusCode >= 200 && resp.StatusCode < 300,
		LastModified: resp.Header.Get("Last-Modified"),
	}
	log.Debug().Str("path", path).Int("status", res.Status).Str("last_modified", res.LastModified).Msg("probe")
	return res, nil
}
