// Package loader materializes audio handles for background tracks and sound
// effects and swaps them into the playback service.
package loader

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/signals"
	"github.com/llehouerou/soundloader/internal/state"
)

// ErrNotFound is returned when the probe reports the target as missing.
var ErrNotFound = errors.New("audio file not found")

const (
	defaultLoadTimeout = 3 * time.Second
	defaultRetryDelay  = time.Second
)

// Options tunes the engine. Zero values use the defaults.
type Options struct {
	LoadTimeout    time.Duration // grace period before resolving an under-buffered handle
	RetryDelay     time.Duration // wait before the single play retry
	Volumes        player.Presets
	SentenceVolume float64
}

func (o Options) withDefaults() Options {
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = defaultLoadTimeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	def := player.DefaultPresets()
	if o.Volumes.Mobile <= 0 {
		o.Volumes.Mobile = def.Mobile
	}
	if o.Volumes.Desktop <= 0 {
		o.Volumes.Desktop = def.Desktop
	}
	if o.SentenceVolume <= 0 {
		o.SentenceVolume = player.DefaultSentenceVolume
	}
	return o
}

// Deps are the collaborators of an Engine.
type Deps struct {
	BaseURL  string
	Prober   probe.Interface
	Factory  player.Factory
	Playback playback.Service
	Rotation *playlist.Rotation
	Layout   playlist.Layout
	Session  *state.Session
	Signals  *signals.Signals
}

// Engine is the audio swap engine.
type Engine struct {
	base     *url.URL
	prober   probe.Interface
	factory  player.Factory
	playback playback.Service
	rotation *playlist.Rotation
	layout   playlist.Layout
	session  *state.Session
	signals  *signals.Signals
	opts     Options
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine.
func New(deps Deps, opts Options) (*Engine, error) {
	baseURL := deps.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if deps.Signals == nil {
		deps.Signals = signals.New("")
	}
	if deps.Rotation == nil {
		deps.Rotation = playlist.NewRotation(playlist.DefaultMaxIndex)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		base:     base,
		prober:   deps.Prober,
		factory:  deps.Factory,
		playback: deps.Playback,
		rotation: deps.Rotation,
		layout:   deps.Layout,
		session:  deps.Session,
		signals:  deps.Signals,
		opts:     opts.withDefaults(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Close stops reloads triggered by track completion.
func (e *Engine) Close() {
	e.cancel()
}

// DeviceVolume returns the background volume for the current user agent.
func (e *Engine) DeviceVolume() float64 {
	return e.opts.Volumes.For(e.signals.UserAgent())
}

func (e *Engine) resolve(path string) string {
	return probe.Resolve(e.base, path)
}
