package playback

import (
	"errors"

	"github.com/llehouerou/soundloader/internal/player"
)

var (
	// ErrStale is returned by Install when a newer reload has been requested.
	ErrStale = errors.New("stale reload generation")
	// ErrUnknownEffect is returned when replacing an effect the registry does not hold.
	ErrUnknownEffect = errors.New("effect not registered")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("playback service closed")
)

// Service owns the active background handle and the sound effects registry.
// Every read and replacement goes through it.
type Service interface {
	// Background handle
	Background() player.Handle
	CurrentTrack() *Track
	State() State

	// NextGeneration starts a new reload request and returns its number.
	NextGeneration() uint64
	// IsCurrent reports whether gen is still the latest request.
	IsCurrent(gen uint64) bool
	// Install makes h the active background handle if gen is still
	// current, then stops the outgoing handle. A stale h is left untouched.
	Install(gen uint64, h player.Handle, track Track) error

	// Effects registry
	Effect(name string) (player.Handle, bool)
	EffectNames() []string
	// RegisterEffect adds or overwrites an entry. Used by the host when it
	// first loads its effects.
	RegisterEffect(name string, h player.Handle)
	// ReplaceEffect swaps an existing entry in place and stops the old
	// handle. Unknown names are rejected.
	ReplaceEffect(name string, h player.Handle) error

	// Events
	Subscribe() *Subscription
	Notify(n Notice)
	ReportError(e ErrorEvent)

	// Lifecycle
	Close() error
}
