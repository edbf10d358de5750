//go:build linux

// Package mpris exposes the background music to desktop media controls.
package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"path"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/playlist"
)

const busName = "soundloader"

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

// Adapter serves the MPRIS interfaces over D-Bus.
type Adapter struct {
	server *server.Server
	cancel context.CancelFunc
}

// New creates and starts an adapter.
func New(controls Controls) (*Adapter, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		server: server.NewServer(busName, &rootAdapter{}, &playerAdapter{ctx: ctx, controls: controls}),
		cancel: cancel,
	}

	go func() {
		if err := a.server.Listen(); err != nil {
			log.Debug().Err(err).Msg("mpris server stopped")
		}
	}()
	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	a.cancel()
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Soundloader", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/mp3"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter. Play and
// pause map to unmute and mute, so the rotation keeps its place.
type playerAdapter struct {
	ctx      context.Context
	controls Controls
}

// Next skips to the following rotation track.
func (p *playerAdapter) Next() error {
	next := p.controls.Rotation().Advance()
	go func() {
		if err := p.controls.ReloadBackgroundMusic(p.ctx); err != nil {
			log.Warn().Err(err).Int("index", next).Msg("mpris next failed")
		}
	}()
	return nil
}

func (p *playerAdapter) Previous() error {
	return nil
}

func (p *playerAdapter) Pause() error {
	p.controls.SetMuted(true)
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.controls.ToggleBackgroundMusic()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.controls.SetGameActive(false)
	return nil
}

func (p *playerAdapter) Play() error {
	p.controls.SetMuted(false)
	return nil
}

func (p *playerAdapter) Seek(_ types.Microseconds) error {
	return nil
}

func (p *playerAdapter) SetPosition(_ string, _ types.Microseconds) error {
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.controls.Playback().State() {
	case playback.StatePlaying:
		if p.controls.Muted() {
			return types.PlaybackStatusPaused, nil
		}
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	track := p.controls.Playback().CurrentTrack()
	if track == nil {
		return types.Metadata{}, nil
	}

	title := path.Base(track.Path)
	if track.Fallback {
		title += " (fallback)"
	}
	return types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.Path)),
		Title:       title,
		Album:       "Background music",
		TrackNumber: track.Index,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	h := p.controls.Playback().Background()
	if h == nil {
		return 0, nil
	}
	return h.Volume(), nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	if h := p.controls.Playback().Background(); h != nil {
		h.SetVolume(level)
	}
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return 0, nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.controls.Playback().Background() != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
