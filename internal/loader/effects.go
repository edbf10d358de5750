package loader

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/cachebust"
	"github.com/llehouerou/soundloader/internal/playback"
	"github.com/llehouerou/soundloader/internal/player"
)

// ReloadEffect replaces a registered effect with a freshly fetched handle.
// On any failure the previous handle stays in place.
func (e *Engine) ReloadEffect(ctx context.Context, name string) error {
	if _, ok := e.playback.Effect(name); !ok {
		return fmt.Errorf("%w: %s", playback.ErrUnknownEffect, name)
	}

	h, err := e.Materialize(ctx, Effect(name))
	if err != nil {
		log.Debug().Err(err).Str("effect", name).Msg("effect reload skipped, keeping previous handle")
		return err
	}

	path := e.layout.EffectPath(name)
	if err := e.session.MarkEffectVersion(path, e.now()); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("effect version stamp not saved")
	}

	if err := e.playback.ReplaceEffect(name, h); err != nil {
		h.Stop()
		return err
	}
	log.Info().Str("effect", name).Msg("sound effect reloaded")
	return nil
}

// ReloadEffects reloads every registered effect. Failures are logged and
// do not stop the others.
func (e *Engine) ReloadEffects(ctx context.Context) {
	for _, name := range e.playback.EffectNames() {
		if err := e.ReloadEffect(ctx, name); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("effect", name).Msg("effect reload failed")
		}
	}
}

// LoadSentence returns a loading handle for the zero-based sentence clip.
// Sentence clips are not probed and play at a fixed volume on every device.
func (e *Engine) LoadSentence(index int) player.Handle {
	path := e.layout.SentencePath(index)
	h := e.factory.New(cachebust.URL(e.resolve(path), cachebust.ParamNoCache))
	h.SetVolume(e.opts.SentenceVolume)
	h.OnceError(func(err error) {
		log.Warn().Err(err).Str("path", path).Msg("sentence clip failed to load")
	})
	h.Load()
	return h
}
