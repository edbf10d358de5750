package app

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/soundloader/internal/config"
	"github.com/llehouerou/soundloader/internal/notify"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/state"
)

const (
	testModified = "Mon, 01 Jan 2024 00:00:00 GMT"
	startupDone  = 2 * time.Second
)

type fixture struct {
	app      *App
	prober   *probe.Mock
	factory  *player.MockFactory
	backend  *state.Memory
	notifier *notify.Mock
	layout   playlist.Layout
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:   "http://game.test",
		SoundsDir: "sounds",
		Effects:   []string{playlist.EffectShoot, playlist.EffectExplosion},
		Store:     config.StoreConfig{Backend: config.StoreMemory},
	}
}

// newFixture builds an app whose server has background tracks 1..tracks.
// Call it inside a synctest bubble.
func newFixture(t *testing.T, tracks int) *fixture {
	t.Helper()

	cfg := testConfig()
	layout := playlist.Layout{Dir: cfg.SoundsDir, Effects: cfg.Effects}
	prober := probe.NewMock()
	for i := 1; i <= tracks; i++ {
		prober.SetExists(layout.BackgroundPath(i), testModified)
	}
	for _, name := range layout.Effects {
		prober.SetExists(layout.EffectPath(name), testModified)
	}

	f := &fixture{
		prober:   prober,
		factory:  player.NewMockFactory(),
		backend:  state.NewMemory(),
		notifier: notify.NewMock(),
		layout:   layout,
	}
	f.factory.AutoReady()

	a, err := New(cfg, Deps{
		Prober:   f.prober,
		Factory:  f.factory,
		Backend:  f.backend,
		Notifier: f.notifier,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	f.app = a
	return f
}

func (f *fixture) background(t *testing.T) *player.Mock {
	t.Helper()
	h := f.app.Playback().Background()
	require.NotNil(t, h, "no background handle installed")
	m, ok := h.(*player.Mock)
	require.True(t, ok)
	return m
}

type countingVolume struct{ calls atomic.Int32 }

func (c *countingVolume) ToggleMute() { c.calls.Add(1) }

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "not a url"
	_, err := New(cfg, Deps{Prober: probe.NewMock(), Factory: player.NewMockFactory(), Backend: state.NewMemory()})
	assert.Error(t, err)
}

func TestStart_ClearsPreviousSessionStamps(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)
		require.NoError(t, f.backend.Set(state.KeyLastBackgroundLoad, "1"))
		require.NoError(t, f.backend.Set(state.KeyCacheVersion, "2"))

		f.app.Start()

		_, found, _ := f.backend.Get(state.KeyLastBackgroundLoad)
		assert.False(t, found)
		_, found, _ = f.backend.Get(state.KeyCacheVersion)
		assert.False(t, found)
		require.NoError(t, f.app.Close())
	})
}

func TestStart_CensusUpdatesRotation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 4)
		require.NoError(t, f.backend.Set(state.KeyMaxTrackIndex, "9"))

		f.app.Start()
		synctest.Wait()

		assert.Equal(t, 4, f.app.Rotation().Max())
		v, _, _ := f.backend.Get(state.KeyMaxTrackIndex)
		assert.Equal(t, "4", v)
		require.NoError(t, f.app.Close())
	})
}

func TestStart_LoadsBackgroundAfterDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)
		f.app.Signals().SetGameActive(true)

		f.app.Start()
		time.Sleep(1400 * time.Millisecond)
		synctest.Wait()
		assert.Nil(t, f.app.Playback().Background())

		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		bg := f.background(t)
		assert.True(t, bg.Playing())
		assert.Contains(t, bg.Source(), "sounds/background1.mp3?v=")
		require.NoError(t, f.app.Close())
	})
}

func TestStart_GameInactiveLoadsWithoutPlaying(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)

		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()

		assert.False(t, f.background(t).Playing())
		require.NoError(t, f.app.Close())
	})
}

func TestStart_ReloadsRegisteredEffects(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)

		f.app.Start()
		names := f.app.Playback().EffectNames()
		assert.ElementsMatch(t, f.layout.Effects, names)
		initial, _ := f.app.Playback().Effect(playlist.EffectShoot)
		assert.True(t, strings.HasPrefix(initial.Source(), "http://game.test/sounds/shoot.mp3?nocache="), initial.Source())

		time.Sleep(startupDone)
		synctest.Wait()

		for _, name := range f.layout.Effects {
			h, ok := f.app.Playback().Effect(name)
			require.True(t, ok)
			assert.Contains(t, h.Source(), "nocache=", "effect %s", name)
		}
		assert.Equal(t, player.Released, initial.State())
		require.NoError(t, f.app.Close())
	})
}

func TestStart_EveryFetchIsCacheBusted(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)

		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()

		seen := make(map[string]bool)
		for _, h := range f.factory.Handles() {
			src := h.Source()
			assert.Regexp(t, `\?(nocache|v)=[^&]+$`, src)
			assert.False(t, seen[src], "fetch URL reused: %s", src)
			seen[src] = true
		}
		require.NoError(t, f.app.Close())
	})
}

func TestStart_FirstScanRecordsMarkers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)
		session := state.NewSession(f.backend)

		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()

		for _, p := range f.layout.TrackedPaths(2) {
			res := session.FreshnessMarker(p)
			assert.True(t, res.Found, "marker for %s", p)
			assert.Equal(t, testModified, res.Value)
		}
		require.NoError(t, f.app.Close())
	})
}

func TestStart_Twice(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)

		f.app.Start()
		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()

		// Per effect: the initial handle, the startup reload and the reload
		// after the first scan recorded its marker.
		effects := 0
		for _, h := range f.factory.Handles() {
			if !strings.Contains(h.Source(), "background") {
				effects++
			}
		}
		assert.Equal(t, 3*len(f.layout.Effects), effects)
		require.NoError(t, f.app.Close())
	})
}

func TestManualReload(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)
		session := state.NewSession(f.backend)
		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()

		before := f.background(t)
		sub := f.app.Subscribe()

		require.NoError(t, f.app.ManualReload(context.Background()))

		assert.NotSame(t, before, f.background(t))
		assert.True(t, before.Released())
		for _, p := range f.layout.TrackedPaths(2) {
			assert.False(t, session.FreshnessMarker(p).Found, "marker for %s", p)
		}
		_, found, _ := f.backend.Get(state.KeyCacheVersion)
		assert.False(t, found)

		select {
		case n := <-sub.Notice:
			assert.Equal(t, "Background music reloaded", n.Message)
			assert.Equal(t, 3*time.Second, n.Duration)
		default:
			t.Fatal("no notice emitted")
		}

		sent := f.notifier.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "Background music reloaded", sent[0].Body)
		require.NoError(t, f.app.Close())
	})
}

func TestManualReload_NotifierFailureIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)
		f.notifier.SetError(assert.AnError)

		assert.NoError(t, f.app.ManualReload(context.Background()))
		require.NoError(t, f.app.Close())
	})
}

func TestReloadBackgroundMusic_MissingTrackInstallsFallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 0)

		require.NoError(t, f.app.ReloadBackgroundMusic(context.Background()))

		track := f.app.Playback().CurrentTrack()
		require.NotNil(t, track)
		assert.True(t, track.Fallback)
		assert.True(t, f.background(t).Loop())
		require.NoError(t, f.app.Close())
	})
}

func TestToggleBackgroundMusic_Delegates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)

		f.app.ToggleBackgroundMusic()

		vc := &countingVolume{}
		f.app.SetVolumeControl(vc)
		f.app.ToggleBackgroundMusic()
		f.app.ToggleBackgroundMusic()
		assert.Equal(t, int32(2), vc.calls.Load())
		require.NoError(t, f.app.Close())
	})
}

func TestSetMuted(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)
		f.app.Signals().SetGameActive(true)
		require.NoError(t, f.app.ReloadBackgroundMusic(context.Background()))
		bg := f.background(t)
		require.True(t, bg.Playing())

		f.app.SetMuted(true)
		assert.True(t, f.app.Muted())
		assert.True(t, bg.Muted())

		bg.Pause()
		f.app.SetMuted(false)
		assert.False(t, bg.Muted())
		assert.True(t, bg.Playing())
		require.NoError(t, f.app.Close())
	})
}

func TestSetGameActive(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)
		require.NoError(t, f.app.ReloadBackgroundMusic(context.Background()))
		bg := f.background(t)
		require.False(t, bg.Playing())

		f.app.SetGameActive(true)
		assert.True(t, bg.Playing())

		f.app.SetGameActive(false)
		assert.Equal(t, player.Paused, bg.State())

		f.app.SetMuted(true)
		f.app.SetGameActive(true)
		assert.Equal(t, player.Paused, bg.State())
		require.NoError(t, f.app.Close())
	})
}

func TestSetVisible_RegainReloadsAfterSettle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)
		f.app.Signals().SetGameActive(true)
		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()
		before := f.background(t)

		f.app.SetVisible(false)
		synctest.Wait()
		f.app.SetVisible(true)
		synctest.Wait()
		assert.Same(t, before, f.background(t))

		time.Sleep(time.Second)
		synctest.Wait()
		after := f.background(t)
		assert.NotSame(t, before, after)
		assert.True(t, after.Playing())
		require.NoError(t, f.app.Close())
	})
}

func TestSetVisible_BackToBackEventsKeepOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)
		f.app.Signals().SetGameActive(true)
		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()
		before := f.background(t)

		f.app.SetVisible(false)
		f.app.SetVisible(true)
		assert.True(t, f.app.Signals().Visible(), "last event wins")

		time.Sleep(time.Second)
		synctest.Wait()
		assert.NotSame(t, before, f.background(t), "regain reloads the background")
		require.NoError(t, f.app.Close())
	})
}

func TestSetVisible_HiddenOnlyStartsNothing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 2)
		f.app.Signals().SetGameActive(true)
		f.app.Start()
		time.Sleep(startupDone)
		synctest.Wait()
		before := f.background(t)

		f.app.SetVisible(false)
		f.app.SetVisible(false)
		assert.False(t, f.app.Signals().Visible())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Same(t, before, f.background(t))
		require.NoError(t, f.app.Close())
	})
}

func TestLoadSentence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)

		h := f.app.LoadSentence(0)

		assert.Contains(t, h.Source(), "sounds/96_audio/1.mp3?nocache=")
		assert.InDelta(t, 0.8, h.Volume(), 1e-9)
		require.NoError(t, f.app.Close())
	})
}

func TestClose_ReleasesHandles(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 1)
		require.NoError(t, f.app.ReloadBackgroundMusic(context.Background()))
		bg := f.background(t)

		require.NoError(t, f.app.Close())
		require.NoError(t, f.app.Close())

		assert.True(t, bg.Released())
		f.app.Start()
		assert.Empty(t, f.app.Playback().EffectNames())
	})
}
