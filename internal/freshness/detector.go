// Package freshness detects server-side changes to tracked audio files and
// triggers targeted reloads.
package freshness

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/playlist"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/signals"
	"github.com/llehouerou/soundloader/internal/state"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultSettle   = time.Second
)

// Reloader performs the reloads a detected change asks for.
type Reloader interface {
	ReloadBackground(ctx context.Context) error
	ReloadEffect(ctx context.Context, name string) error
}

// Change is one tracked path whose freshness marker moved.
type Change struct {
	Path     string
	Kind     playlist.Kind
	Effect   string
	Index    int
	Previous string // empty when nothing was stored
	Current  string
}

// Detector re-probes tracked paths and compares their Last-Modified marker
// with the stored one.
type Detector struct {
	prober   probe.Interface
	layout   playlist.Layout
	rotation *playlist.Rotation
	session  *state.Session
	reloader Reloader
	signals  *signals.Signals
	interval time.Duration
	settle   time.Duration
	now      func() time.Time

	scanMu sync.Mutex
}

// Config holds the detector's collaborators and timing.
type Config struct {
	Prober   probe.Interface
	Layout   playlist.Layout
	Rotation *playlist.Rotation
	Session  *state.Session
	Reloader Reloader
	Signals  *signals.Signals
	Interval time.Duration // zero uses DefaultInterval
	Settle   time.Duration // zero uses DefaultSettle
}

// New creates a detector.
func New(cfg Config) *Detector {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Signals == nil {
		cfg.Signals = signals.New("")
	}
	return &Detector{
		prober:   cfg.Prober,
		layout:   cfg.Layout,
		rotation: cfg.Rotation,
		session:  cfg.Session,
		reloader: cfg.Reloader,
		signals:  cfg.Signals,
		interval: cfg.Interval,
		settle:   cfg.Settle,
		now:      time.Now,
	}
}

// TrackedPaths returns the paths a scan probes.
func (d *Detector) TrackedPaths() []string {
	return d.layout.TrackedPaths(d.rotation.Max())
}

// Scan probes every tracked path, records moved markers and reloads what
// changed: the affected effect entries, and the active background once if
// any background track changed. A failing probe only skips its own path.
func (d *Detector) Scan(ctx context.Context) []Change {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()

	paths := d.TrackedPaths()
	found := make([]*Change, len(paths))

	var g errgroup.Group
	for i, p := range paths {
		g.Go(func() error {
			found[i] = d.check(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var changes []Change
	for _, c := range found {
		if c != nil {
			changes = append(changes, *c)
		}
	}
	if len(changes) == 0 {
		log.Debug().Int("paths", len(paths)).Msg("scan: no changes")
		return nil
	}

	d.dispatch(ctx, changes)
	return changes
}

// check probes one path and records a moved marker. Returns nil when
// nothing changed or the path could not be checked.
func (d *Detector) check(ctx context.Context, path string) *Change {
	res, err := d.prober.Stat(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("scan: probe failed")
		return nil
	}
	if !res.OK || res.LastModified == "" {
		return nil
	}

	stored := d.session.FreshnessMarker(path)
	if stored.Err != nil {
		return nil
	}
	if stored.Found && stored.Value == res.LastModified {
		return nil
	}

	if err := d.session.SetFreshnessMarker(path, res.LastModified); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("freshness marker not saved")
	}
	if err := d.session.BumpCacheVersion(d.now()); err != nil {
		log.Debug().Err(err).Msg("cache version not saved")
	}

	kind, name, index := d.layout.Classify(path)
	log.Info().
		Str("path", path).
		Str("previous", stored.Value).
		Str("current", res.LastModified).
		Msg("audio file changed")

	return &Change{
		Path:     path,
		Kind:     kind,
		Effect:   name,
		Index:    index,
		Previous: stored.Value,
		Current:  res.LastModified,
	}
}

func (d *Detector) dispatch(ctx context.Context, changes []Change) {
	background := false
	for _, c := range changes {
		switch c.Kind {
		case playlist.KindEffect:
			err := d.reloader.ReloadEffect(ctx, c.Effect)
			if err != nil && !errors.Is(err, playback.ErrUnknownEffect) {
				log.Warn().Err(err).Str("effect", c.Effect).Msg("effect reload failed")
			}
		case playlist.KindBackground:
			background = true
		case playlist.KindUnknown:
		}
	}
	if !background {
		return
	}
	if err := d.reloader.ReloadBackground(ctx); err != nil && !errors.Is(err, playback.ErrStale) {
		log.Warn().Err(err).Msg("background reload after change failed")
	}
}

// Run scans every interval until ctx ends.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Scan(ctx)
		}
	}
}

// VisibilityRegained scans after the page came back into view and then,
// if the game is active, reloads the background after the settle period.
// The caller owns the visibility flag and calls this only on a hidden to
// visible transition.
func (d *Detector) VisibilityRegained(ctx context.Context) {
	log.Debug().Msg("visibility regained")
	d.Scan(ctx)

	if !d.signals.GameActive() {
		return
	}

	timer := time.NewTimer(d.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := d.reloader.ReloadBackground(ctx); err != nil && !errors.Is(err, playback.ErrStale) {
		log.Warn().Err(err).Msg("background reload after visibility failed")
	}
}

// Watch scans whenever w reports a local file change, until ctx ends or
// the watcher closes.
func (d *Detector) Watch(ctx context.Context, w *Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-w.Events:
			if !ok {
				return
			}
			log.Debug().Str("file", name).Msg("local audio change, scanning")
			d.Scan(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}
