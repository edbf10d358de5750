package freshness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsAudioChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	target := filepath.Join(dir, "shoot.mp3")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	select {
	case name := <-w.Events:
		require.Equal(t, target, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the mp3 file")
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestIsAudioFile(t *testing.T) {
	tests := map[string]bool{
		"sounds/shoot.mp3":       true,
		"sounds/BACKGROUND1.MP3": true,
		"sounds/readme.md":       false,
		"sounds/clip.ogg":        false,
	}
	for path, want := range tests {
		if got := isAudioFile(path); got != want {
			t.Errorf("isAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}
