// internal/player/state.go
package player

import "sync"

// LoadState is the loading half of a handle's lifecycle.
//
//	┌──────────┐    decoded     ┌──────────┐
//	│  Loading │ ──────────────▶│   Ready  │
//	└──────────┘                └──────────┘
//	     │
//	     │ fetch/decode error
//	     ▼
//	┌──────────┐
//	│  Failed  │
//	└──────────┘
//
// Ready and Failed are terminal. A handle settles exactly once.
type LoadState int

const (
	Loading LoadState = iota
	Ready
	Failed
)

// String returns the state name for debugging.
func (s LoadState) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Ready:
		return "Ready"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Settled returns true once the handle is Ready or Failed.
func (s LoadState) Settled() bool {
	return s == Ready || s == Failed
}

// State is the playback half of a handle's lifecycle.
//
//	┌──────────┐      play       ┌──────────┐
//	│   Idle   │ ───────────────▶│  Playing │◀─────┐
//	└──────────┘                 └──────────┘      │
//	                               │      │        │ play
//	                         pause │      │ end    │
//	                               ▼      ▼        │
//	                       ┌──────────┐ ┌──────────┐
//	                       │  Paused  │ │   Ended  │
//	                       └──────────┘ └──────────┘
//
// Stop moves any state to Released, which is terminal.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Ended
	Released
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Ended:
		return "Ended"
	case Released:
		return "Released"
	default:
		return "Unknown"
	}
}

// CanPlay returns true if Play may start or resume from this state.
func (s State) CanPlay() bool {
	return s != Playing && s != Released
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// ReadyState mirrors how much of the source is buffered.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// String returns the level name for debugging.
func (r ReadyState) String() string {
	switch r {
	case HaveNothing:
		return "HaveNothing"
	case HaveMetadata:
		return "HaveMetadata"
	case HaveCurrentData:
		return "HaveCurrentData"
	case HaveFutureData:
		return "HaveFutureData"
	case HaveEnoughData:
		return "HaveEnoughData"
	default:
		return "Unknown"
	}
}

// CanPlayThrough returns true when enough data is buffered to start.
func (r ReadyState) CanPlayThrough() bool {
	return r >= HaveFutureData
}

// lifecycle holds the load state and the one-shot callbacks shared by
// every Handle implementation.
type lifecycle struct {
	mu      sync.Mutex
	state   LoadState
	err     error
	onReady []func()
	onError []func(error)
	onEnded []func()
}

func (l *lifecycle) loadState() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *lifecycle) loadErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *lifecycle) onceReady(fn func()) {
	l.mu.Lock()
	switch l.state {
	case Loading:
		l.onReady = append(l.onReady, fn)
		l.mu.Unlock()
	case Ready:
		l.mu.Unlock()
		fn()
	default:
		l.mu.Unlock()
	}
}

func (l *lifecycle) onceError(fn func(error)) {
	l.mu.Lock()
	switch l.state {
	case Loading:
		l.onError = append(l.onError, fn)
		l.mu.Unlock()
	case Failed:
		err := l.err
		l.mu.Unlock()
		fn(err)
	default:
		l.mu.Unlock()
	}
}

func (l *lifecycle) addEnded(fn func()) {
	l.mu.Lock()
	l.onEnded = append(l.onEnded, fn)
	l.mu.Unlock()
}

// markReady settles the handle as Ready. Returns false if it had
// already settled.
func (l *lifecycle) markReady() bool {
	l.mu.Lock()
	if l.state != Loading {
		l.mu.Unlock()
		return false
	}
	l.state = Ready
	cbs := l.onReady
	l.onReady, l.onError = nil, nil
	l.mu.Unlock()

	for _, fn := range cbs {
		fn()
	}
	return true
}

// markFailed settles the handle as Failed. Returns false if it had
// already settled.
func (l *lifecycle) markFailed(err error) bool {
	l.mu.Lock()
	if l.state != Loading {
		l.mu.Unlock()
		return false
	}
	l.state = Failed
	l.err = err
	cbs := l.onError
	l.onReady, l.onError = nil, nil
	l.mu.Unlock()

	for _, fn := range cbs {
		fn(err)
	}
	return true
}

func (l *lifecycle) fireEnded() {
	l.mu.Lock()
	cbs := make([]func(), len(l.onEnded))
	copy(cbs, l.onEnded)
	l.mu.Unlock()

	for _, fn := range cbs {
		fn()
	}
}

// dropCallbacks forgets every registered callback.
func (l *lifecycle) dropCallbacks() {
	l.mu.Lock()
	l.onReady, l.onError, l.onEnded = nil, nil, nil
	l.mu.Unlock()
}
