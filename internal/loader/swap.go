package loader

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
)

// snapshot is the playback state carried from the outgoing handle to its
// replacement.
type snapshot struct {
	replacing  bool
	wasPlaying bool
	volume     float64
	muted      bool // nothing may start playback
	handleMute bool // mute flag of the outgoing handle
}

func (e *Engine) snapshot(old player.Handle) snapshot {
	muted := e.signals.Muted()
	if old == nil {
		// Cold start: play if the game is running.
		return snapshot{wasPlaying: e.signals.GameActive(), muted: muted}
	}
	return snapshot{
		replacing: true,
		// An ended handle is mid-rotation and keeps playing.
		wasPlaying: old.Playing() || old.Ended(),
		volume:     old.Volume(),
		muted:      muted || old.Muted(),
		handleMute: old.Muted(),
	}
}

// ReloadBackground replaces the active background handle with a fresh copy
// of the current rotation track. Play state, volume and mute flag of the
// outgoing handle carry over. If a newer reload starts before this one commits, the
// new handle is discarded and playback.ErrStale is returned.
func (e *Engine) ReloadBackground(ctx context.Context) error {
	gen := e.playback.NextGeneration()
	snap := e.snapshot(e.playback.Background())
	index := e.rotation.Current()

	h, track, err := e.MaterializeBackground(ctx, index)
	if err != nil {
		return err
	}

	if snap.replacing {
		h.SetVolume(snap.volume)
		h.SetMuted(snap.handleMute)
	}
	if err := e.playback.Install(gen, h, track); err != nil {
		h.Stop()
		if errors.Is(err, playback.ErrStale) {
			log.Debug().Uint64("generation", gen).Int("index", index).Msg("reload superseded")
		}
		return err
	}

	log.Info().
		Int("index", index).
		Bool("fallback", track.Fallback).
		Float64("volume", h.Volume()).
		Msg("background music reloaded")

	if snap.wasPlaying && !snap.muted {
		e.playWithRetry(h, track.Path)
	}
	return nil
}

// playWithRetry starts h and, on failure, tries exactly once more after the
// retry delay, provided h is still the active handle.
func (e *Engine) playWithRetry(h player.Handle, path string) {
	err := h.Play()
	if err == nil {
		return
	}
	log.Error().Err(err).Str("path", path).Msg("background play failed, retrying")

	time.AfterFunc(e.opts.RetryDelay, func() {
		if e.ctx.Err() != nil || e.playback.Background() != h {
			return
		}
		if err := h.Play(); err != nil {
			log.Error().Err(err).Str("path", path).Msg("background play retry failed")
			e.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpBackgroundPlay, Path: path, Err: err})
		}
	})
}

// backgroundEnded advances the rotation and loads the next track once h,
// the active handle, finishes.
func (e *Engine) backgroundEnded(h player.Handle) func() {
	return func() {
		if e.ctx.Err() != nil || e.playback.Background() != h {
			return
		}
		next := e.rotation.Advance()
		log.Debug().Int("next", next).Msg("background track ended")
		go func() {
			err := e.ReloadBackground(e.ctx)
			if err != nil && !errors.Is(err, playback.ErrStale) && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("rotation reload failed")
			}
		}()
	}
}
