package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/cachebust"
	"github.com/llehouerou/soundloader/internal/census"
	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/freshness"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/probe"
	"github.com/llehouerou/soundloader/internal/state"
)

// Start registers the configured effects and runs the startup sequence in
// the background:
//
//   - the previous session's load stamps are cleared and the track census
//     starts, using the cached count until it completes
//   - after the startup load delay the current background track is loaded
//     and every effect is reloaded
//   - after the startup scan delay the first change scan runs, followed by
//     one scan per interval
//
// Start returns immediately. Calling it twice has no effect.
func (a *App) Start() {
	a.mu.Lock()
	if a.started || a.closed {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	if err := a.session.Remove(state.KeyLastBackgroundLoad, state.KeyCacheVersion); err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpStateClear, err))
	}
	census.ApplyCached(a.rotation, a.session)
	a.registerEffects()

	a.goTask(a.runCensus)
	a.goTask(func(ctx context.Context) {
		if !sleep(ctx, a.timing.StartupLoadDelay) {
			return
		}
		if err := a.ReloadBackgroundMusic(ctx); err != nil {
			log.Warn().Err(err).Msg("initial background load failed")
		}
		a.engine.ReloadEffects(ctx)
	})
	a.goTask(func(ctx context.Context) {
		if !sleep(ctx, a.timing.StartupScanDelay) {
			return
		}
		a.detector.Scan(ctx)
		a.detector.Run(ctx)
	})
	if a.cfg.HasWatchDir() {
		a.startWatcher()
	}
}

func (a *App) runCensus(ctx context.Context) {
	n, err := a.census.Run(ctx, a.rotation, a.session)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpCensus, err))
			a.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpCensus, Err: err})
		}
		return
	}
	log.Debug().Int("max", n).Msg("rotation bound updated")
}

// registerEffects seeds the registry with one handle per configured effect.
// Reloads replace these entries.
func (a *App) registerEffects() {
	for _, name := range a.layout.Effects {
		if _, ok := a.playback.Effect(name); ok {
			continue
		}
		url := cachebust.URL(probe.Resolve(a.base, a.layout.EffectPath(name)), cachebust.ParamNoCache)
		h := a.factory.New(url)
		h.Load()
		a.playback.RegisterEffect(name, h)
	}
}

func (a *App) startWatcher() {
	w, err := freshness.NewWatcher(a.cfg.WatchDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", a.cfg.WatchDir).Msg(errmsg.Format(errmsg.OpWatch, err))
		a.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpWatch, Path: a.cfg.WatchDir, Err: err})
		return
	}

	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()

	a.goTask(func(ctx context.Context) {
		a.detector.Watch(ctx, w)
	})
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func ignoreStale(err error) error {
	if errors.Is(err, playback.ErrStale) {
		return nil
	}
	return err
}
