//go:build !windows

// Package stderr redirects file descriptor 2 into a channel so that the
// audio backend's C library (ALSA) cannot draw over the terminal UI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"syscall"
)

const bufferSize = 100

var (
	mu        sync.Mutex
	origFD    = -1
	pipeRead  *os.File
	pipeWrite *os.File
	lines     chan string
)

// Start redirects stderr and returns the captured lines, trimmed and
// without blanks. Lines are dropped while the reader falls behind. The
// channel closes after Stop. Calling Start again returns the same channel.
func Start() (<-chan string, error) {
	mu.Lock()
	defer mu.Unlock()

	if lines != nil {
		return lines, nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	fd, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(fd)
		r.Close()
		w.Close()
		return nil, err
	}

	origFD, pipeRead, pipeWrite = fd, r, w
	out := make(chan string, bufferSize)
	lines = out

	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			default:
			}
		}
	}()
	return out, nil
}

// WriteOriginal writes msg to the terminal's stderr, bypassing the capture.
func WriteOriginal(msg string) {
	mu.Lock()
	fd := origFD
	mu.Unlock()

	if fd < 0 {
		_, _ = os.Stderr.WriteString(msg)
		return
	}
	_, _ = syscall.Write(fd, []byte(msg))
}

// Stop restores the original stderr.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if lines == nil {
		return
	}
	_ = syscall.Dup2(origFD, int(os.Stderr.Fd()))
	_ = syscall.Close(origFD)
	pipeWrite.Close()
	pipeRead.Close()

	origFD = -1
	lines = nil
}
