// internal/player/mock.go
package player

import "sync"

// Mock is a test double for Handle. Nothing settles until a Trigger method
// is called, unless an on-load hook does it.
type Mock struct {
	life lifecycle

	mu            sync.Mutex
	url           string
	onLoad        func(*Mock)
	loadCalls     int
	readyState    ReadyState
	state         State
	level         float64
	muted         bool
	loop          bool
	playRequested bool
	playCalls     int
	playErrs      []error
}

// NewMock creates a mock handle for url.
func NewMock(url string) *Mock {
	return &Mock{url: url, level: 1}
}

func (m *Mock) Source() string { return m.url }

func (m *Mock) Load() {
	m.mu.Lock()
	m.loadCalls++
	first := m.loadCalls == 1
	fn := m.onLoad
	m.mu.Unlock()

	if first && fn != nil {
		fn(m)
	}
}

func (m *Mock) LoadState() LoadState { return m.life.loadState() }

func (m *Mock) ReadyState() ReadyState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readyState
}

func (m *Mock) OnceReady(fn func())      { m.life.onceReady(fn) }
func (m *Mock) OnceError(fn func(error)) { m.life.onceError(fn) }
func (m *Mock) OnEnded(fn func())        { m.life.addEnded(fn) }

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++
	if m.state == Released {
		return ErrReleased
	}
	if len(m.playErrs) > 0 {
		err := m.playErrs[0]
		m.playErrs = m.playErrs[1:]
		if err != nil {
			return err
		}
	}
	if err := m.life.loadErr(); err != nil {
		return err
	}
	if m.life.loadState() != Ready {
		m.playRequested = true
		return nil
	}
	m.state = Playing
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playRequested = false
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	m.state = Released
	m.playRequested = false
	m.mu.Unlock()

	m.life.markFailed(ErrReleased)
	m.life.dropCallbacks()
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Playing() bool { return m.State() == Playing }
func (m *Mock) Ended() bool   { return m.State() == Ended }

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = clampLevel(level)
}

func (m *Mock) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func (m *Mock) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

func (m *Mock) SetLoop(loop bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loop = loop
}

// Test helpers

// TriggerReady settles the mock as ready and honours a pending Play.
func (m *Mock) TriggerReady() {
	m.mu.Lock()
	m.readyState = HaveEnoughData
	m.mu.Unlock()

	if !m.life.markReady() {
		return
	}

	m.mu.Lock()
	if m.playRequested && m.state == Idle {
		m.state = Playing
	}
	m.playRequested = false
	m.mu.Unlock()
}

// TriggerError settles the mock as failed.
func (m *Mock) TriggerError(err error) {
	m.life.markFailed(err)
}

// TriggerEnded simulates playback reaching the end.
func (m *Mock) TriggerEnded() {
	m.mu.Lock()
	m.state = Ended
	m.mu.Unlock()
	m.life.fireEnded()
}

// SetReadyState sets the reported buffering level.
func (m *Mock) SetReadyState(r ReadyState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyState = r
}

// SetState forces the playback state.
func (m *Mock) SetState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// FailPlay queues errors returned by the next Play calls, one per call.
// A nil entry lets that call succeed.
func (m *Mock) FailPlay(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErrs = append(m.playErrs, errs...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// Released returns true once Stop has been called.
func (m *Mock) Released() bool {
	return m.State() == Released
}

// MockFactory is a test double for Factory that records every handle.
type MockFactory struct {
	mu      sync.Mutex
	handles []*Mock
	onLoad  func(*Mock)
}

// NewMockFactory creates a factory whose handles stay loading until
// triggered.
func NewMockFactory() *MockFactory {
	return &MockFactory{}
}

// SetOnLoad installs a hook run the first time each new handle is loaded.
func (f *MockFactory) SetOnLoad(fn func(*Mock)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLoad = fn
}

// AutoReady makes every new handle become ready as soon as it is loaded.
func (f *MockFactory) AutoReady() {
	f.SetOnLoad(func(m *Mock) { m.TriggerReady() })
}

func (f *MockFactory) New(url string) Handle {
	m := NewMock(url)
	f.mu.Lock()
	m.onLoad = f.onLoad
	f.handles = append(f.handles, m)
	f.mu.Unlock()
	return m
}

// Handles returns every handle created so far.
func (f *MockFactory) Handles() []*Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Mock, len(f.handles))
	copy(out, f.handles)
	return out
}

// Last returns the most recently created handle, or nil.
func (f *MockFactory) Last() *Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.handles) == 0 {
		return nil
	}
	return f.handles[len(f.handles)-1]
}

// Verify Mock implements the interfaces at compile time.
var (
	_ Handle  = (*Mock)(nil)
	_ Factory = (*MockFactory)(nil)
)
