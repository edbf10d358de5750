// Package signals holds the environment flags the audio core reads: page
// visibility, whether gameplay is active, the global mute flag and the
// device user agent.
package signals

import (
	"sync"
	"sync/atomic"
)

// Signals is safe for concurrent use. The zero value is hidden, inactive
// and unmuted with an empty user agent.
type Signals struct {
	gameActive atomic.Bool
	muted      atomic.Bool
	visible    atomic.Bool

	mu        sync.RWMutex
	userAgent string
}

// New returns signals for a visible page with the given user agent.
func New(userAgent string) *Signals {
	s := &Signals{userAgent: userAgent}
	s.visible.Store(true)
	return s
}

func (s *Signals) GameActive() bool { return s.gameActive.Load() }

func (s *Signals) SetGameActive(active bool) { s.gameActive.Store(active) }

func (s *Signals) Muted() bool { return s.muted.Load() }

func (s *Signals) SetMuted(muted bool) { s.muted.Store(muted) }

func (s *Signals) Visible() bool { return s.visible.Load() }

// SetVisible records the visibility state and reports whether this call was
// a transition from hidden to visible.
func (s *Signals) SetVisible(visible bool) (regained bool) {
	was := s.visible.Swap(visible)
	return visible && !was
}

func (s *Signals) UserAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userAgent
}

func (s *Signals) SetUserAgent(ua string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAgent = ua
}
