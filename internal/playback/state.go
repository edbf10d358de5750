// internal/playback/state.go
package playback

import "github.com/llehouerou/soundloader/internal/player"

// State represents the background playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// stateOf maps a handle to the coarse playback state. A nil handle is stopped.
func stateOf(h player.Handle) State {
	if h == nil {
		return StateStopped
	}
	switch h.State() {
	case player.Playing:
		return StatePlaying
	case player.Paused:
		return StatePaused
	case player.Idle, player.Ended, player.Released:
		return StateStopped
	default:
		return StateStopped
	}
}
