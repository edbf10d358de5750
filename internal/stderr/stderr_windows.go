//go:build windows

// Package stderr is a no-op on Windows, whose audio backend does not write
// to stderr.
package stderr

import "os"

// Start returns a channel that never receives.
func Start() (<-chan string, error) {
	return make(chan string), nil
}

// WriteOriginal writes msg to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop does nothing.
func Stop() {}
