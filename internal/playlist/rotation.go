package playlist

import "sync"

// DefaultMaxIndex is used until the track census has run.
const DefaultMaxIndex = 6

// Rotation owns the current background track index and wraps it through
// 1..Max. The index is always within that range.
type Rotation struct {
	mu      sync.Mutex
	current int
	max     int
}

// NewRotation creates a rotation starting at track 1.
func NewRotation(maxIndex int) *Rotation {
	if maxIndex < 1 {
		maxIndex = DefaultMaxIndex
	}
	return &Rotation{current: 1, max: maxIndex}
}

// Current returns the current track index.
func (r *Rotation) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Max returns the wraparound point.
func (r *Rotation) Max() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.max
}

// Advance moves to the next track, wrapping to 1 after Max, and returns it.
func (r *Rotation) Advance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	if r.current > r.max {
		r.current = 1
	}
	return r.current
}

// SetMax replaces the wraparound point. Values below 1 are clamped to 1.
// A current index beyond the new bound restarts the rotation at 1.
func (r *Rotation) SetMax(maxIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.max = max(maxIndex, 1)
	if r.current > r.max {
		r.current = 1
	}
}
