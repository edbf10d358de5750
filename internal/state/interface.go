// internal/state/interface.go
package state

// Backend is a raw key-value store. Implementations may fail at any call;
// callers go through Session, which turns failures into ErrUnavailable.
type Backend interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(keys ...string) error
	Close() error
}

// Verify implementations satisfy Backend at compile time.
var (
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Memory)(nil)
)
