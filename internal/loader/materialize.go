package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/cachebust"
	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
	"github.com/llehouerou/soundloader/internal/playlist"
)

// Materialize probes the target and, if it exists, builds a fresh
// cache-busted handle for it. The call resolves once the handle is ready,
// fails to load, or the load timeout passes with the handle still
// under-buffered, whichever happens first.
//
// Errors wrap ErrNotFound or player.ErrLoad.
func (e *Engine) Materialize(ctx context.Context, t Target) (player.Handle, error) {
	path, err := e.pathOf(t)
	if err != nil {
		return nil, err
	}
	if !e.prober.Exists(ctx, path) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	h := e.factory.New(cachebust.URL(e.resolve(path), paramOf(t)))
	if t.Kind == playlist.KindBackground {
		h.OnEnded(e.backgroundEnded(h))
	}
	if err := e.await(ctx, h, path); err != nil {
		h.Stop()
		return nil, err
	}
	return h, nil
}

// await loads h and blocks until exactly one of ready, error or timeout
// resolves it.
func (e *Engine) await(ctx context.Context, h player.Handle, path string) error {
	type outcome struct {
		err error
	}
	resolved := make(chan outcome, 1)
	var once sync.Once
	// claim reports whether the caller won the single resolution.
	claim := func() bool {
		won := false
		once.Do(func() { won = true })
		return won
	}

	h.OnceReady(func() {
		if claim() {
			h.SetVolume(e.DeviceVolume())
			resolved <- outcome{}
		}
	})
	h.OnceError(func(err error) {
		if !claim() {
			return
		}
		if !errors.Is(err, player.ErrLoad) {
			err = fmt.Errorf("%w: %w", player.ErrLoad, err)
		}
		resolved <- outcome{err: err}
	})
	h.Load()

	timer := time.NewTimer(e.opts.LoadTimeout)
	defer timer.Stop()
	timeout := timer.C

	for {
		select {
		case o := <-resolved:
			if o.err != nil {
				log.Debug().Err(o.err).Str("path", path).Msg("audio load error")
				return o.err
			}
			log.Debug().Str("path", path).Msg("audio ready")
			return nil

		case <-timeout:
			timeout = nil
			if h.ReadyState().CanPlayThrough() {
				// Enough is buffered; ready is imminent.
				continue
			}
			if !claim() {
				continue
			}
			h.SetVolume(e.DeviceVolume())
			log.Debug().
				Str("path", path).
				Stringer("ready_state", h.ReadyState()).
				Dur("after", e.opts.LoadTimeout).
				Msg("load timeout, using under-buffered handle")
			return nil

		case <-ctx.Done():
			if !claim() {
				continue
			}
			return ctx.Err()
		}
	}
}

// MaterializeBackground materializes background track index for the
// rotation. A missing or unloadable track still yields a looping fallback
// handle for the same URL so playback keeps going in a degraded state.
// Only context cancellation is returned as an error.
func (e *Engine) MaterializeBackground(ctx context.Context, index int) (player.Handle, playback.Track, error) {
	t := Background(index)
	path, err := e.pathOf(t)
	if err != nil {
		return nil, playback.Track{}, err
	}
	if err := e.session.MarkBackgroundLoad(e.now()); err != nil {
		log.Debug().Err(err).Msg("background load stamp not saved")
	}

	track := playback.Track{Index: index, Path: path}

	h, err := e.Materialize(ctx, t)
	if err == nil {
		track.URL = h.Source()
		return h, track, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, track, ctxErr
	}

	log.Warn().Err(err).Str("path", path).Msg("background track unavailable, using fallback")
	e.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpBackgroundReload, Path: path, Err: err})

	fb := e.fallback(path)
	track.URL = fb.Source()
	track.Fallback = true
	return fb, track, nil
}

// fallback builds a looping handle for path at device volume without
// waiting for it to load.
func (e *Engine) fallback(path string) player.Handle {
	h := e.factory.New(cachebust.URL(e.resolve(path), cachebust.ParamVersion))
	h.SetLoop(true)
	h.SetVolume(e.DeviceVolume())
	h.OnceError(func(err error) {
		log.Debug().Err(err).Str("path", path).Msg("fallback handle failed to load")
	})
	h.Load()
	return h
}
