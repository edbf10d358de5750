// Package app wires the audio loader together: it runs the startup sequence
// and exposes the entry points used by the control surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/census"
	"github.com/llehouerou/soundloader/internal/config"
	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/freshness"
	"github.com/llehouerou/soundloader/internal/loader"
	"github.com/llehouerou/soundloader/internal/notify"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/signals"
	"github.com/llehouerou/soundloader/internal/state"
)

// VolumeControl is the host's mute control. ToggleBackgroundMusic delegates
// to it.
type VolumeControl interface {
	ToggleMute()
}

// Deps overrides the collaborators New would otherwise build from the
// configuration. Nil fields use the defaults.
type Deps struct {
	Prober   probe.Interface
	Factory  player.Factory
	Backend  state.Backend
	Notifier notify.Notifier
	Volume   VolumeControl
}

// App owns every long-lived component of the loader.
type App struct {
	cfg    *config.Config
	timing config.TimingConfig
	base   *url.URL

	layout   playlist.Layout
	rotation *playlist.Rotation
	signals  *signals.Signals
	session  *state.Session
	playback playback.Service
	factory  player.Factory
	engine   *loader.Engine
	census   *census.Census
	detector *freshness.Detector
	notifier notify.Notifier

	mu       sync.Mutex
	volume   VolumeControl
	watcher  *freshness.Watcher
	noticeID uint32

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// New builds the application from configuration.
func New(cfg *config.Config, deps Deps) (*App, error) {
	timing := cfg.GetTimingConfig()
	volumes := cfg.GetVolumeConfig()
	censusCfg := cfg.GetCensusConfig()

	base, err := parseBase(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	if deps.Prober == nil {
		p, err := probe.New(base.String(), timing.ProbeTimeout)
		if err != nil {
			return nil, err
		}
		deps.Prober = p
	}
	if deps.Factory == nil {
		deps.Factory = player.NewStreamFactory(nil, cfg.UserAgent)
	}
	if deps.Backend == nil {
		deps.Backend = openBackend(cfg)
	}

	layout := playlist.Layout{Dir: cfg.SoundsDir, Effects: cfg.Effects}
	sigs := signals.New(cfg.UserAgent)
	rotation := playlist.NewRotation(censusCfg.DefaultMax)
	session := state.NewSession(deps.Backend)
	svc := playback.New()

	engine, err := loader.New(loader.Deps{
		BaseURL:  base.String(),
		Prober:   deps.Prober,
		Factory:  deps.Factory,
		Playback: svc,
		Rotation: rotation,
		Layout:   layout,
		Session:  session,
		Signals:  sigs,
	}, loader.Options{
		LoadTimeout:    timing.LoadTimeout,
		RetryDelay:     timing.PlayRetryDelay,
		Volumes:        player.Presets{Mobile: volumes.Mobile, Desktop: volumes.Desktop},
		SentenceVolume: volumes.Sentence,
	})
	if err != nil {
		return nil, err
	}

	detector := freshness.New(freshness.Config{
		Prober:   deps.Prober,
		Layout:   layout,
		Rotation: rotation,
		Session:  session,
		Reloader: engine,
		Signals:  sigs,
		Interval: timing.ScanInterval,
		Settle:   timing.VisibilitySettle,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:      cfg,
		timing:   timing,
		base:     base,
		layout:   layout,
		rotation: rotation,
		signals:  sigs,
		session:  session,
		playback: svc,
		factory:  deps.Factory,
		engine:   engine,
		census:   census.New(deps.Prober, layout, censusCfg.Limit),
		detector: detector,
		notifier: deps.Notifier,
		volume:   deps.Volume,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}

// openBackend opens the configured store. A sqlite store that cannot be
// opened degrades to memory so the loader keeps working.
func openBackend(cfg *config.Config) state.Backend {
	if cfg.UseMemoryStore() {
		return state.NewMemory()
	}
	db, err := state.OpenSQLite(cfg.Store.Path)
	if err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpStateOpen, err))
		return state.NewMemory()
	}
	return db
}

// SetVolumeControl installs the host's mute control.
func (a *App) SetVolumeControl(v VolumeControl) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volume = v
}

// Playback returns the playback service for status display.
func (a *App) Playback() playback.Service {
	return a.playback
}

// Signals returns the environment flags.
func (a *App) Signals() *signals.Signals {
	return a.signals
}

// Rotation returns the background track rotation.
func (a *App) Rotation() *playlist.Rotation {
	return a.rotation
}

// Subscribe returns a subscription to playback events.
func (a *App) Subscribe() *playback.Subscription {
	return a.playback.Subscribe()
}

// Close stops every background task and releases all audio handles.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	w := a.watcher
	a.mu.Unlock()

	a.cancel()
	a.engine.Close()
	if w != nil {
		if err := w.Close(); err != nil {
			log.Debug().Err(err).Msg("close watcher")
		}
	}
	a.wg.Wait()

	return errors.Join(a.playback.Close(), a.session.Close())
}

// goTask runs fn in a tracked goroutine bound to the app context. It does
// nothing once the app is closed.
func (a *App) goTask(fn func(ctx context.Context)) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
}
