package loader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/signals"
	"github.com/llehouerou/soundloader/internal/state"
)

const (
	testBaseURL  = "http://game.test/"
	testModified = "Mon, 01 Jan 2024 00:00:00 GMT"
	desktopUA    = "Mozilla/5.0 (X11; Linux x86_64)"
	mobileUA     = "Mozilla/5.0 (Linux; Android 14)"
)

type fixture struct {
	engine   *Engine
	prober   *probe.Mock
	factory  *player.MockFactory
	playback playback.Service
	rotation *playlist.Rotation
	signals  *signals.Signals
	backend  *state.Memory
	layout   playlist.Layout
}

func newFixture(t *testing.T, maxIndex int) *fixture {
	t.Helper()

	layout := playlist.DefaultLayout()
	prober := probe.NewMock()
	for i := 1; i <= maxIndex; i++ {
		prober.SetExists(layout.BackgroundPath(i), testModified)
	}
	for _, name := range layout.Effects {
		prober.SetExists(layout.EffectPath(name), testModified)
	}

	f := &fixture{
		prober:   prober,
		factory:  player.NewMockFactory(),
		playback: playback.New(),
		rotation: playlist.NewRotation(maxIndex),
		signals:  signals.New(desktopUA),
		backend:  state.NewMemory(),
		layout:   layout,
	}
	f.factory.AutoReady()

	e, err := New(Deps{
		BaseURL:  testBaseURL,
		Prober:   f.prober,
		Factory:  f.factory,
		Playback: f.playback,
		Rotation: f.rotation,
		Layout:   layout,
		Session:  state.NewSession(f.backend),
		Signals:  f.signals,
	}, Options{})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	f.engine = e
	return f
}

func mockOf(t *testing.T, h player.Handle) *player.Mock {
	t.Helper()
	m, ok := h.(*player.Mock)
	require.True(t, ok, "handle is %T, want *player.Mock", h)
	return m
}

func TestMaterialize_EffectReady(t *testing.T) {
	f := newFixture(t, 3)

	h, err := f.engine.Materialize(context.Background(), Effect(playlist.EffectShoot))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h.Source(), testBaseURL+"sounds/shoot.mp3?nocache="), h.Source())
	assert.Equal(t, player.DefaultDesktopVolume, h.Volume())
	assert.Equal(t, player.Ready, h.LoadState())
}

func TestMaterialize_BackgroundUsesVersionParam(t *testing.T) {
	f := newFixture(t, 3)

	h, err := f.engine.Materialize(context.Background(), Background(2))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h.Source(), testBaseURL+"sounds/background2.mp3?v="), h.Source())
}

func TestMaterialize_NotFound(t *testing.T) {
	f := newFixture(t, 3)
	f.prober.SetMissing("sounds/shoot.mp3")

	h, err := f.engine.Materialize(context.Background(), Effect(playlist.EffectShoot))

	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, h)
	assert.Empty(t, f.factory.Handles(), "no handle should be built for a missing file")
}

func TestMaterialize_TransportFailureCountsAsMissing(t *testing.T) {
	f := newFixture(t, 3)
	f.prober.SetError("sounds/explosion.mp3", probe.ErrTransport)

	_, err := f.engine.Materialize(context.Background(), Effect(playlist.EffectExplosion))

	require.ErrorIs(t, err, ErrNotFound)
}

func TestMaterialize_LoadError(t *testing.T) {
	f := newFixture(t, 3)
	f.factory.SetOnLoad(func(m *player.Mock) { m.TriggerError(errors.New("decode failed")) })

	h, err := f.engine.Materialize(context.Background(), Effect(playlist.EffectShoot))

	require.ErrorIs(t, err, player.ErrLoad)
	assert.Nil(t, h)
	assert.True(t, f.factory.Last().Released(), "failed handle should be released")
}

func TestMaterialize_MobileVolume(t *testing.T) {
	f := newFixture(t, 3)
	f.signals.SetUserAgent(mobileUA)

	h, err := f.engine.Materialize(context.Background(), Effect(playlist.EffectShoot))
	require.NoError(t, err)

	assert.Equal(t, player.DefaultMobileVolume, h.Volume())
}

func TestMaterialize_DistinctURLsWithinSameMillisecond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)

		a, err := f.engine.Materialize(context.Background(), Background(1))
		require.NoError(t, err)
		b, err := f.engine.Materialize(context.Background(), Background(1))
		require.NoError(t, err)

		assert.NotEqual(t, a.Source(), b.Source())
	})
}

func TestMaterialize_TimeoutResolvesUnderBuffered(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)
		f.factory.SetOnLoad(func(m *player.Mock) { m.SetReadyState(player.HaveCurrentData) })

		start := time.Now()
		h, err := f.engine.Materialize(context.Background(), Background(1))

		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, defaultLoadTimeout, time.Since(start))
		assert.Equal(t, player.Loading, h.LoadState())
		assert.Equal(t, player.DefaultDesktopVolume, h.Volume())
	})
}

func TestMaterialize_LateReadyAfterTimeoutIsInert(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)
		f.factory.SetOnLoad(nil)

		h, err := f.engine.Materialize(context.Background(), Background(1))
		require.NoError(t, err)

		h.SetVolume(0.5)
		mockOf(t, h).TriggerReady()

		assert.Equal(t, 0.5, h.Volume(), "late ready must not reapply the device volume")
	})
}

func TestMaterialize_ContextCanceled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, 3)
		f.factory.SetOnLoad(nil)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := f.engine.Materialize(ctx, Background(1))

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMaterializeBackground_MissingYieldsFallback(t *testing.T) {
	f := newFixture(t, 3)
	f.prober.SetMissing("sounds/background2.mp3")

	h, track, err := f.engine.MaterializeBackground(context.Background(), 2)

	require.NoError(t, err)
	require.NotNil(t, h)
	assert.True(t, track.Fallback)
	assert.True(t, h.Loop(), "fallback should loop")
	assert.Equal(t, player.DefaultDesktopVolume, h.Volume())
	assert.True(t, strings.Contains(h.Source(), "sounds/background2.mp3?v="), h.Source())
	assert.Equal(t, 1, mockOf(t, h).LoadCalls())
}

func TestMaterializeBackground_LoadErrorYieldsFallback(t *testing.T) {
	f := newFixture(t, 3)
	calls := 0
	f.factory.SetOnLoad(func(m *player.Mock) {
		calls++
		if calls == 1 {
			m.TriggerError(errors.New("boom"))
		}
	})

	h, track, err := f.engine.MaterializeBackground(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, track.Fallback)
	assert.Len(t, f.factory.Handles(), 2)
	assert.Same(t, f.factory.Last(), h)
}

func TestMaterializeBackground_StampsLoadTime(t *testing.T) {
	f := newFixture(t, 3)

	_, _, err := f.engine.MaterializeBackground(context.Background(), 1)
	require.NoError(t, err)

	_, found, _ := f.backend.Get(state.KeyLastBackgroundLoad)
	assert.True(t, found)
}

func TestMaterialize_InvalidTarget(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.engine.Materialize(context.Background(), Background(0))
	require.Error(t, err)

	_, err = f.engine.Materialize(context.Background(), Effect(""))
	require.Error(t, err)
}
