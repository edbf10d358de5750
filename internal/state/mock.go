// internal/state/mock.go
package state

import "errors"

// errBroken is what Broken returns for every call.
var errBroken = errors.New("quota exceeded")

// Broken is a Backend that fails every call, like storage in a privacy mode.
type Broken struct {
	Panic bool // panic instead of returning an error
}

func (b *Broken) Get(string) (string, bool, error) {
	if b.Panic {
		panic("storage access denied")
	}
	return "", false, errBroken
}

func (b *Broken) Set(string, string) error {
	if b.Panic {
		panic("storage access denied")
	}
	return errBroken
}

func (b *Broken) Delete(...string) error {
	if b.Panic {
		panic("storage access denied")
	}
	return errBroken
}

func (b *Broken) Close() error { return nil }

var _ Backend = (*Broken)(nil)
