package loader

import (
	"errors"
	"fmt"

	"github.com/llehouerou/soundloader/internal/cachebust"
	"github.com/llehouerou/soundloader/internal/playlist"
)

// Target names what to materialize: a background track index or an effect.
type Target struct {
	Kind   playlist.Kind
	Index  int
	Effect string
}

// Background targets background track index.
func Background(index int) Target {
	return Target{Kind: playlist.KindBackground, Index: index}
}

// Effect targets the named sound effect.
func Effect(name string) Target {
	return Target{Kind: playlist.KindEffect, Effect: name}
}

func (t Target) String() string {
	if t.Kind == playlist.KindEffect {
		return "effect:" + t.Effect
	}
	return fmt.Sprintf("background:%d", t.Index)
}

func (e *Engine) pathOf(t Target) (string, error) {
	switch t.Kind {
	case playlist.KindBackground:
		if t.Index < 1 {
			return "", fmt.Errorf("invalid track index %d", t.Index)
		}
		return e.layout.BackgroundPath(t.Index), nil
	case playlist.KindEffect:
		if t.Effect == "" {
			return "", errors.New("empty effect name")
		}
		return e.layout.EffectPath(t.Effect), nil
	case playlist.KindUnknown:
	}
	return "", fmt.Errorf("unknown target %v", t)
}

// paramOf returns the cache-bust query parameter used for the target.
func paramOf(t Target) string {
	if t.Kind == playlist.KindBackground {
		return cachebust.ParamVersion
	}
	return cachebust.ParamNoCache
}
