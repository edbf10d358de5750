// internal/probe/mock.go
package probe

import (
	"context"
	"sync"
)

// Mock is a test double for Prober.
type Mock struct {
	mu       sync.Mutex
	results  map[string]Result
	errs     map[string]error
	calls    []string
	fallback Result
}

// NewMock creates a mock prober where every path is missing.
func NewMock() *Mock {
	return &Mock{
		results: make(map[string]Result),
		errs:    make(map[string]error),
	}
}

func (m *Mock) Exists(ctx context.Context, path string) bool {
	res, err := m.Stat(ctx, path)
	return err == nil && res.OK
}

func (m *Mock) Stat(_ context.Context, path string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	if err, ok := m.errs[path]; ok {
		return Result{Path: path}, err
	}
	if res, ok := m.results[path]; ok {
		return res, nil
	}
	res := m.fallback
	res.Path = path
	return res, nil
}

// Test helpers

// SetExists marks path as present with the given Last-Modified value.
func (m *Mock) SetExists(path, lastModified string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errs, path)
	m.results[path] = Result{Path: path, Status: 200, OK: true, LastModified: lastModified}
}

// SetMissing marks path as answering 404.
func (m *Mock) SetMissing(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errs, path)
	m.results[path] = Result{Path: path, Status: 404}
}

// SetError makes Stat fail for path.
func (m *Mock) SetError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[path] = err
}

// Calls returns the probed paths in call order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times path was probed.
func (m *Mock) CallCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == path {
			n++
		}
	}
	return n
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
