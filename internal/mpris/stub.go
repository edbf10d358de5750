//go:build !linux

package mpris

import (
	"context"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/playlist"
)

// Controls is the part of the application media keys drive.
type Controls interface {
	Playback() playback.Service
	Rotation() *playlist.Rotation
	ReloadBackgroundMusic(ctx context.Context) error
	ToggleBackgroundMusic()
	Muted() bool
	SetMuted(muted bool)
	SetGameActive(active bool)
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Controls) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
