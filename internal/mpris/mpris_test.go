//go:build linux

package mpris

import (
	"context"
	"sync"
	"testing"

	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
)

type fakeControls struct {
	svc      playback.Service
	rotation *playlist.Rotation

	mu      sync.Mutex
	muted   bool
	active  bool
	toggles int
	reloads chan struct{}
}

func newFakeControls() *fakeControls {
	return &fakeControls{
		svc:      playback.New(),
		rotation: playlist.NewRotation(3),
		active:   true,
		reloads:  make(chan struct{}, 1),
	}
}

func (f *fakeControls) Playback() playback.Service   { return f.svc }
func (f *fakeControls) Rotation() *playlist.Rotation { return f.rotation }

func (f *fakeControls) SetGameActive(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = active
}

func (f *fakeControls) ToggleBackgroundMusic() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
}

func (f *fakeControls) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
}

func (f *fakeControls) Muted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeControls) ReloadBackgroundMusic(context.Context) error {
	f.reloads <- struct{}{}
	return nil
}

func install(t *testing.T, svc playback.Service, track playback.Track) *player.Mock {
	t.Helper()
	h := player.NewMock(track.URL)
	if err := svc.Install(svc.NextGeneration(), h, track); err != nil {
		t.Fatalf("Install: %v", err)
	}
	return h
}

func TestPlayerAdapter_PlayPauseMapsToMute(t *testing.T) {
	c := newFakeControls()
	p := &playerAdapter{ctx: context.Background(), controls: c}

	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if !c.Muted() {
		t.Error("Pause should mute")
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if c.Muted() {
		t.Error("Play should unmute")
	}
	if err := p.PlayPause(); err != nil {
		t.Fatal(err)
	}
	if c.toggles != 1 {
		t.Errorf("toggles = %d, want 1", c.toggles)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if c.active {
		t.Error("Stop should deactivate the game")
	}
}

func TestPlayerAdapter_NextAdvancesAndReloads(t *testing.T) {
	c := newFakeControls()
	p := &playerAdapter{ctx: context.Background(), controls: c}

	if err := p.Next(); err != nil {
		t.Fatal(err)
	}
	<-c.reloads
	if got := c.rotation.Current(); got != 2 {
		t.Errorf("rotation current = %d, want 2", got)
	}
}

func TestPlayerAdapter_PlaybackStatus(t *testing.T) {
	c := newFakeControls()
	p := &playerAdapter{ctx: context.Background(), controls: c}

	status, _ := p.PlaybackStatus()
	if status != types.PlaybackStatusStopped {
		t.Errorf("no handle: status = %v, want Stopped", status)
	}

	h := install(t, c.svc, playback.Track{Index: 1, Path: "sounds/background1.mp3", URL: "u1"})
	h.SetState(player.Playing)
	status, _ = p.PlaybackStatus()
	if status != types.PlaybackStatusPlaying {
		t.Errorf("playing: status = %v, want Playing", status)
	}

	c.SetMuted(true)
	status, _ = p.PlaybackStatus()
	if status != types.PlaybackStatusPaused {
		t.Errorf("muted: status = %v, want Paused", status)
	}
}

func TestPlayerAdapter_Metadata(t *testing.T) {
	c := newFakeControls()
	p := &playerAdapter{ctx: context.Background(), controls: c}

	meta, err := p.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "" {
		t.Errorf("empty metadata expected, got title %q", meta.Title)
	}

	install(t, c.svc, playback.Track{Index: 2, Path: "sounds/background2.mp3", URL: "u2", Fallback: true})
	meta, _ = p.Metadata()
	if meta.Title != "background2.mp3 (fallback)" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.TrackNumber != 2 {
		t.Errorf("TrackNumber = %d, want 2", meta.TrackNumber)
	}
	if string(meta.TrackId) != formatTrackID("sounds/background2.mp3") {
		t.Errorf("TrackId = %q", meta.TrackId)
	}
}

func TestPlayerAdapter_Volume(t *testing.T) {
	c := newFakeControls()
	p := &playerAdapter{ctx: context.Background(), controls: c}

	if err := p.SetVolume(0.5); err != nil {
		t.Fatal(err)
	}
	h := install(t, c.svc, playback.Track{Index: 1, Path: "sounds/background1.mp3", URL: "u1"})
	if err := p.SetVolume(0.3); err != nil {
		t.Fatal(err)
	}
	if got := h.Volume(); got != 0.3 {
		t.Errorf("handle volume = %v, want 0.3", got)
	}
	if got, _ := p.Volume(); got != 0.3 {
		t.Errorf("Volume() = %v, want 0.3", got)
	}
}

