package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a file-backed SQLite store in a temp dir.
func setupTestDB(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	return map[string]Backend{
		"sqlite": setupTestDB(t),
		"memory": NewMemory(),
	}
}

func TestBackend_GetMissing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, found, err := b.Get("nope")
			require.NoError(t, err)
			assert.False(t, found)
			assert.Empty(t, v)
		})
	}
}

func TestBackend_SetOverwriteDelete(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Set("k", "one"))
			require.NoError(t, b.Set("k", "two"))
			require.NoError(t, b.Set("other", "x"))

			v, found, err := b.Get("k")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "two", v)

			require.NoError(t, b.Delete("k", "other", "never-set"))

			_, found, err = b.Get("k")
			require.NoError(t, err)
			assert.False(t, found)
			_, found, err = b.Get("other")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyMaxTrackIndex, "4"))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	v, found, err := s2.Get(KeyMaxTrackIndex)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "4", v)
}

func TestSession_MaxTrackIndex(t *testing.T) {
	s := NewSession(NewMemory())

	assert.False(t, s.MaxTrackIndex().OK())
	assert.Equal(t, 6, s.MaxTrackIndex().Or(6))

	require.NoError(t, s.SetMaxTrackIndex(9))
	res := s.MaxTrackIndex()
	assert.True(t, res.OK())
	assert.Equal(t, 9, res.Value)
}

func TestSession_MaxTrackIndexRejectsGarbage(t *testing.T) {
	s := NewSession(NewMemory())
	require.NoError(t, s.Set(KeyMaxTrackIndex, "zero"))

	res := s.MaxTrackIndex()
	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, ErrUnavailable))
	assert.Equal(t, 3, res.Or(3))
}

func TestSession_FreshnessMarkers(t *testing.T) {
	mem := NewMemory()
	s := NewSession(mem)

	require.NoError(t, s.SetFreshnessMarker("sounds/shoot.mp3", "Mon, 01 Jan 2024 00:00:00 GMT"))

	_, found, _ := mem.Get("file_modified_sounds_shoot.mp3")
	assert.True(t, found, "marker should be stored under the normalized key")

	res := s.FreshnessMarker("sounds/shoot.mp3")
	assert.True(t, res.OK())
	assert.Equal(t, "Mon, 01 Jan 2024 00:00:00 GMT", res.Value)

	require.NoError(t, s.ClearFreshnessMarkers("sounds/shoot.mp3", "sounds/background1.mp3"))
	assert.False(t, s.FreshnessMarker("sounds/shoot.mp3").Found)
}

func TestSession_Stamps(t *testing.T) {
	mem := NewMemory()
	s := NewSession(mem)
	at := time.UnixMilli(1700000000123)

	require.NoError(t, s.MarkBackgroundLoad(at))
	require.NoError(t, s.BumpCacheVersion(at))
	require.NoError(t, s.MarkEffectVersion("sounds/shoot.mp3", at))

	v, _, _ := mem.Get(KeyLastBackgroundLoad)
	assert.Equal(t, "1700000000123", v)
	v, _, _ = mem.Get("audio_version_sounds/shoot.mp3")
	assert.Equal(t, "1700000000123", v)

	require.NoError(t, s.ClearLoadStamps())
	_, found, _ := mem.Get(KeyLastBackgroundLoad)
	assert.False(t, found)
	_, found, _ = mem.Get(KeyCacheVersion)
	assert.False(t, found)
}

func TestSession_FailuresDegrade(t *testing.T) {
	tests := []struct {
		name string
		s    *Session
	}{
		{"nil backend", NewSession(nil)},
		{"nil session", nil},
		{"failing backend", NewSession(&Broken{})},
		{"panicking backend", NewSession(&Broken{Panic: true})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				res := tt.s.Get("k")
				assert.True(t, errors.Is(res.Err, ErrUnavailable))
				assert.Equal(t, "fallback", res.Or("fallback"))

				assert.True(t, errors.Is(tt.s.Set("k", "v"), ErrUnavailable))
				assert.True(t, errors.Is(tt.s.Remove("k"), ErrUnavailable))
				assert.Equal(t, 6, tt.s.MaxTrackIndex().Or(6))
				assert.Error(t, tt.s.ClearLoadStamps())
			})
		})
	}
}
