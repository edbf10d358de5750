// Package cachebust generates per-request tokens that defeat browser, proxy and
// CDN caches when fetching or probing audio files.
package cachebust

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Query parameter names used by the loaders.
const (
	ParamNoCache = "nocache" // effects, sentences and probes
	ParamVersion = "v"       // background tracks
)

// Token is a uniqueness marker made of the request time and a random part.
// A token is never persisted and never reused for two requests.
type Token struct {
	Time   time.Time
	Random string
}

// now is replaced in tests to force several tokens into the same millisecond.
var now = time.Now

// New returns a fresh token.
func New() Token {
	id := uuid.New()
	return Token{
		Time:   now(),
		Random: strings.ReplaceAll(id.String(), "-", ""),
	}
}

// String renders the token as "<unix millis>-<random>".
func (t Token) String() string {
	return strconv.FormatInt(t.Time.UnixMilli(), 10) + "-" + t.Random
}

// Apply appends the token to rawPath under the given query parameter,
// keeping any query the path already carries.
func (t Token) Apply(rawPath, param string) string {
	sep := "?"
	if strings.Contains(rawPath, "?") {
		sep = "&"
	}
	return rawPath + sep + url.QueryEscape(param) + "=" + url.QueryEscape(t.String())
}

// URL is a shortcut for New().Apply(rawPath, param).
func URL(rawPath, param string) string {
	return New().Apply(rawPath, param)
}
