package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable is returned when the backing store cannot be used.
var ErrUnavailable = errors.New("storage unavailable")

// Keys.
const (
	KeyLastBackgroundLoad = "last_bgm_load_time"
	KeyCacheVersion       = "audio_cache_version"
	KeyMaxTrackIndex      = "max_bgm_index"

	freshnessPrefix     = "file_modified_"
	effectVersionPrefix = "audio_version_"
)

// Result is the outcome of a best-effort read.
type Result[T any] struct {
	Value T
	Found bool
	Err   error
}

// OK reports whether a value was read successfully.
func (r Result[T]) OK() bool {
	return r.Err == nil && r.Found
}

// Or returns the value, or def when nothing usable was read.
func (r Result[T]) Or(def T) T {
	if r.OK() {
		return r.Value
	}
	return def
}

// Session is the best-effort facade over a Backend. It never panics and
// never blocks playback: every failure is logged and reported as
// ErrUnavailable. A nil backend behaves like a store that always fails.
type Session struct {
	backend Backend
}

// NewSession wraps backend.
func NewSession(backend Backend) *Session {
	return &Session{backend: backend}
}

// Get reads key.
func (s *Session) Get(key string) (res Result[string]) {
	defer s.recoverInto(&res.Err, "get", key)
	if s == nil || s.backend == nil {
		return Result[string]{Err: ErrUnavailable}
	}
	v, found, err := s.backend.Get(key)
	if err != nil {
		return Result[string]{Err: s.fail("get", key, err)}
	}
	return Result[string]{Value: v, Found: found}
}

// Set writes key.
func (s *Session) Set(key, value string) (err error) {
	defer s.recoverInto(&err, "set", key)
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}
	if err := s.backend.Set(key, value); err != nil {
		return s.fail("set", key, err)
	}
	return nil
}

// Remove deletes keys.
func (s *Session) Remove(keys ...string) (err error) {
	defer s.recoverInto(&err, "delete", strings.Join(keys, ","))
	if s == nil || s.backend == nil {
		return ErrUnavailable
	}
	if err := s.backend.Delete(keys...); err != nil {
		return s.fail("delete", strings.Join(keys, ","), err)
	}
	return nil
}

// Close releases the backend.
func (s *Session) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// MaxTrackIndex returns the cached census result.
func (s *Session) MaxTrackIndex() Result[int] {
	raw := s.Get(KeyMaxTrackIndex)
	if !raw.OK() {
		return Result[int]{Found: raw.Found, Err: raw.Err}
	}
	n, err := strconv.Atoi(raw.Value)
	if err != nil || n < 1 {
		return Result[int]{Err: fmt.Errorf("%w: bad %s value %q", ErrUnavailable, KeyMaxTrackIndex, raw.Value)}
	}
	return Result[int]{Value: n, Found: true}
}

// SetMaxTrackIndex caches the census result.
func (s *Session) SetMaxTrackIndex(n int) error {
	return s.Set(KeyMaxTrackIndex, strconv.Itoa(n))
}

// FreshnessMarker returns the last Last-Modified value seen for path.
func (s *Session) FreshnessMarker(path string) Result[string] {
	return s.Get(FreshnessKey(path))
}

// SetFreshnessMarker records the Last-Modified value seen for path.
func (s *Session) SetFreshnessMarker(path, marker string) error {
	return s.Set(FreshnessKey(path), marker)
}

// ClearFreshnessMarkers forgets the markers of paths, forcing the next scan
// to treat them as changed.
func (s *Session) ClearFreshnessMarkers(paths ...string) error {
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = FreshnessKey(p)
	}
	return s.Remove(keys...)
}

// MarkBackgroundLoad stamps the last background load time.
func (s *Session) MarkBackgroundLoad(t time.Time) error {
	return s.Set(KeyLastBackgroundLoad, millis(t))
}

// BumpCacheVersion stamps the global cache version.
func (s *Session) BumpCacheVersion(t time.Time) error {
	return s.Set(KeyCacheVersion, millis(t))
}

// MarkEffectVersion stamps the last fresh load of an effect path.
func (s *Session) MarkEffectVersion(path string, t time.Time) error {
	return s.Set(effectVersionPrefix+path, millis(t))
}

// ClearLoadStamps removes the background load and cache version stamps.
func (s *Session) ClearLoadStamps() error {
	return s.Remove(KeyLastBackgroundLoad, KeyCacheVersion)
}

// FreshnessKey normalizes a file path into its marker key.
func FreshnessKey(path string) string {
	return freshnessPrefix + strings.ReplaceAll(path, "/", "_")
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *Session) fail(op, key string, err error) error {
	log.Warn().Err(err).Str("op", op).Str("key", key).Msg("storage unavailable")
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, key, err)
}

// recoverInto turns a panicking backend into ErrUnavailable.
func (s *Session) recoverInto(dst *error, op, key string) {
	if r := recover(); r != nil {
		*dst = s.fail(op, key, fmt.Errorf("panic: %v", r))
	}
}
