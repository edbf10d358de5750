// internal/player/interface.go
package player

import "errors"

// ErrLoad reports that a handle could not fetch or decode its source.
var ErrLoad = errors.New("audio load failed")

// ErrReleased is returned by Play on a handle that has been stopped for good.
var ErrReleased = errors.New("audio handle released")

// Handle is one loaded (or loading) playable audio source.
//
// Readiness and failure are each reported at most once, and never both.
// Callbacks registered after the handle has already settled fire
// immediately on the caller's goroutine.
type Handle interface {
	// Source returns the URL the handle was created for.
	Source() string

	// Load starts fetching the source. Calling it twice is a no-op.
	Load()
	LoadState() LoadState
	ReadyState() ReadyState

	OnceReady(fn func())
	OnceError(fn func(error))
	// OnEnded fires every time playback reaches the end of a
	// non-looping source.
	OnEnded(fn func())

	// Play starts or resumes playback. Before the handle is ready the
	// request is remembered and honoured once it is.
	Play() error
	Pause()
	// Stop halts playback and releases the decoded stream. A stopped
	// handle never plays again.
	Stop()

	State() State
	Playing() bool
	Ended() bool

	Volume() float64
	SetVolume(level float64)
	Muted() bool
	SetMuted(muted bool)
	Loop() bool
	SetLoop(loop bool)
}

// Factory creates fresh handles for a URL.
type Factory interface {
	New(url string) Handle
}

// Verify implementations at compile time.
var (
	_ Handle  = (*Stream)(nil)
	_ Factory = (*StreamFactory)(nil)
)
