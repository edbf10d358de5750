package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/notify"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
)

const (
	manualReloadMessage = "Background music reloaded"
	noticeDuration      = 3 * time.Second
)

// ReloadBackgroundMusic loads the current rotation track again, bypassing
// caches, and swaps it in. A reload superseded by a newer one is not an
// error.
func (a *App) ReloadBackgroundMusic(ctx context.Context) error {
	err := ignoreStale(a.engine.ReloadBackground(ctx))
	if err != nil && ctx.Err() == nil {
		a.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpBackgroundReload, Err: err})
	}
	return err
}

// ToggleBackgroundMusic hands over to the host's mute control.
func (a *App) ToggleBackgroundMusic() {
	a.mu.Lock()
	v := a.volume
	a.mu.Unlock()

	if v == nil {
		log.Warn().Msg("no volume control installed, toggle ignored")
		return
	}
	v.ToggleMute()
}

// ManualReload forgets every load stamp and freshness marker, then reloads
// the background music and announces it.
func (a *App) ManualReload(ctx context.Context) error {
	if err := a.session.ClearLoadStamps(); err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpStateClear, err))
	}
	if err := a.session.ClearFreshnessMarkers(a.detector.TrackedPaths()...); err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpStateClear, err))
	}

	if err := a.ReloadBackgroundMusic(ctx); err != nil {
		return err
	}

	a.playback.Notify(playback.Notice{Message: manualReloadMessage, Duration: noticeDuration})
	a.sendNotice(manualReloadMessage)
	return nil
}

func (a *App) sendNotice(message string) {
	if a.notifier == nil {
		return
	}
	n := notify.Notice(message, noticeDuration)

	a.mu.Lock()
	n.ReplacesID = a.noticeID
	a.mu.Unlock()

	id, err := a.notifier.Notify(n)
	if err != nil {
		log.Debug().Err(err).Msg("desktop notice failed")
		return
	}

	a.mu.Lock()
	a.noticeID = id
	a.mu.Unlock()
}

// SetVisible records whether the game page is visible. Regaining visibility
// triggers a change scan and, while the game is active, a background reload
// once the settle period has passed.
func (a *App) SetVisible(visible bool) {
	if !a.signals.SetVisible(visible) {
		return
	}
	a.goTask(a.detector.VisibilityRegained)
}

// SetGameActive records whether the game is running. Activating the game
// starts the background music unless muted; deactivating it pauses.
func (a *App) SetGameActive(active bool) {
	a.signals.SetGameActive(active)

	h := a.playback.Background()
	if h == nil {
		return
	}
	if !active {
		h.Pause()
		return
	}
	if a.signals.Muted() || h.Playing() {
		return
	}
	if err := h.Play(); err != nil {
		log.Error().Err(err).Str("url", h.Source()).Msg("background play failed")
		a.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpBackgroundPlay, Err: err})
	}
}

// Muted reports whether background music is muted.
func (a *App) Muted() bool {
	return a.signals.Muted()
}

// SetMuted mutes or unmutes the background music. Unmuting while the game
// is active starts the track if it is not already playing.
func (a *App) SetMuted(muted bool) {
	a.signals.SetMuted(muted)

	h := a.playback.Background()
	if h == nil {
		return
	}
	h.SetMuted(muted)
	if muted || !a.signals.GameActive() || h.Playing() {
		return
	}
	if err := h.Play(); err != nil {
		log.Error().Err(err).Str("url", h.Source()).Msg("background play failed")
		a.playback.ReportError(playback.ErrorEvent{Operation: errmsg.OpBackgroundPlay, Err: err})
	}
}

// LoadSentence returns a loading handle for the zero-based sentence clip.
func (a *App) LoadSentence(index int) player.Handle {
	return a.engine.LoadSentence(index)
}
