// internal/notify/mock.go
package notify

import "sync"

// Mock is a test double for Notifier that records every notification.
type Mock struct {
	mu     sync.Mutex
	sent   []Notification
	nextID uint32
	err    error
}

// NewMock creates a new mock notifier.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.sent = append(m.sent, n)
	m.nextID++
	return m.nextID, nil
}

func (m *Mock) Close(_ uint32) error { return nil }

// Test helpers

// SetError makes Notify fail.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Sent returns the notifications sent so far.
func (m *Mock) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

// Verify Mock implements Notifier at compile time.
var _ Notifier = (*Mock)(nil)
