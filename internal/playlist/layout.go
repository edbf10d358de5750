package playlist

import (
	"path"
	"strconv"
	"strings"
)

// Effect names known to the sound effects registry.
const (
	EffectShoot     = "shoot"
	EffectExplosion = "explosion"
)

// DefaultSoundsDir is the server directory holding every audio file.
const DefaultSoundsDir = "sounds"

// Layout maps logical tracks and effects to server paths.
//
//	<dir>/background{N}.mp3   background tracks, N >= 1
//	<dir>/<effect>.mp3        one-shot effects
//	<dir>/96_audio/{i+1}.mp3  spoken sentence clips
type Layout struct {
	Dir     string
	Effects []string
}

// DefaultLayout returns the layout used by the game.
func DefaultLayout() Layout {
	return Layout{
		Dir:     DefaultSoundsDir,
		Effects: []string{EffectShoot, EffectExplosion},
	}
}

// BackgroundPath returns the path of background track index.
func (l Layout) BackgroundPath(index int) string {
	return path.Join(l.dir(), "background"+strconv.Itoa(index)+".mp3")
}

// EffectPath returns the path of the named effect.
func (l Layout) EffectPath(name string) string {
	return path.Join(l.dir(), name+".mp3")
}

// SentencePath returns the path of the sentence clip for a zero-based index.
func (l Layout) SentencePath(index int) string {
	return path.Join(l.dir(), "96_audio", strconv.Itoa(index+1)+".mp3")
}

// TrackedPaths returns every path the change detector watches:
// effects first, then background1..maxIndex.
func (l Layout) TrackedPaths(maxIndex int) []string {
	paths := make([]string, 0, len(l.Effects)+maxIndex)
	for _, name := range l.Effects {
		paths = append(paths, l.EffectPath(name))
	}
	for i := 1; i <= maxIndex; i++ {
		paths = append(paths, l.BackgroundPath(i))
	}
	return paths
}

// Classify reports what a tracked path refers to. For effects, name is the
// effect name; for background tracks, index is the track number.
func (l Layout) Classify(p string) (kind Kind, name string, index int) {
	base := path.Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))

	if rest, ok := strings.CutPrefix(stem, "background"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return KindBackground, "", n
		}
	}
	for _, e := range l.Effects {
		if stem == e && path.Dir(p) == l.dir() {
			return KindEffect, e, 0
		}
	}
	return KindUnknown, "", 0
}

func (l Layout) dir() string {
	if l.Dir == "" {
		return DefaultSoundsDir
	}
	return strings.TrimSuffix(l.Dir, "/")
}

// Kind classifies tracked paths.
type Kind int

const (
	KindUnknown Kind = iota
	KindBackground
	KindEffect
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "background"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}
