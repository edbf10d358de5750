// internal/playback/service_impl.go
package playback

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundloader/internal/player"
)

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.RWMutex

	generation uint64
	background player.Handle
	track      *Track
	effects    map[string]player.Handle

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates a new playback service with no active handle.
func New() Service {
	return &serviceImpl{
		effects: make(map[string]player.Handle),
		done:    make(chan struct{}),
	}
}

// Background returns the active background handle, or nil.
func (s *serviceImpl) Background() player.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// CurrentTrack returns a copy of the installed track description, or nil.
func (s *serviceImpl) CurrentTrack() *Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.track == nil {
		return nil
	}
	t := *s.track
	return &t
}

// State returns the background playback state.
func (s *serviceImpl) State() State {
	return stateOf(s.Background())
}

func (s *serviceImpl) NextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *serviceImpl) IsCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen == s.generation
}

func (s *serviceImpl) Install(gen uint64, h player.Handle, track Track) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStale
	}
	old := s.background
	prev := s.track
	s.background = h
	s.track = &track
	s.mu.Unlock()

	if old != nil && old != h {
		old.Stop()
	}

	log.Debug().
		Uint64("generation", gen).
		Int("index", track.Index).
		Bool("fallback", track.Fallback).
		Msg("background installed")

	cur := track
	s.broadcast(func(sub *Subscription) {
		sub.sendBackground(BackgroundChange{Previous: prev, Current: &cur, Generation: gen})
	})
	return nil
}

func (s *serviceImpl) Effect(name string) (player.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.effects[name]
	return h, ok
}

// EffectNames returns the registered effect names in sorted order.
func (s *serviceImpl) EffectNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.effects))
	for name := range s.effects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *serviceImpl) RegisterEffect(name string, h player.Handle) {
	s.mu.Lock()
	old := s.effects[name]
	s.effects[name] = h
	s.mu.Unlock()

	if old != nil && old != h {
		old.Stop()
	}
}

func (s *serviceImpl) ReplaceEffect(name string, h player.Handle) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old, ok := s.effects[name]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownEffect
	}
	s.effects[name] = h
	s.mu.Unlock()

	if old != nil && old != h {
		old.Stop()
	}

	s.broadcast(func(sub *Subscription) {
		sub.sendEffect(EffectReload{Name: name, URL: h.Source()})
	})
	return nil
}

// Subscribe creates a new event subscription.
func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

func (s *serviceImpl) Notify(n Notice) {
	s.broadcast(func(sub *Subscription) { sub.sendNotice(n) })
}

func (s *serviceImpl) ReportError(e ErrorEvent) {
	s.broadcast(func(sub *Subscription) { sub.sendError(e) })
}

func (s *serviceImpl) broadcast(send func(*Subscription)) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		send(sub)
	}
}

// Close stops every handle and shuts down the service.
func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	handles := make([]player.Handle, 0, len(s.effects)+1)
	if s.background != nil {
		handles = append(handles, s.background)
	}
	for _, h := range s.effects {
		handles = append(handles, h)
	}
	s.background = nil
	s.track = nil
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	return nil
}
