package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog/log"
)

const readChunk = 32 * 1024

// StreamFactory creates handles that download an MP3 over HTTP and play it
// through the shared speaker.
type StreamFactory struct {
	httpClient *http.Client
	userAgent  string
}

// NewStreamFactory creates a factory. A nil client uses http.DefaultClient.
func NewStreamFactory(httpClient *http.Client, userAgent string) *StreamFactory {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StreamFactory{httpClient: httpClient, userAgent: userAgent}
}

// New returns an unloaded handle for url.
func (f *StreamFactory) New(url string) Handle {
	return &Stream{
		url:        url,
		httpClient: f.httpClient,
		userAgent:  f.userAgent,
		level:      1,
	}
}

// Stream is a Handle backed by an in-memory copy of an MP3 file.
type Stream struct {
	url        string
	httpClient *http.Client
	userAgent  string

	life lifecycle

	mu            sync.Mutex
	loading       bool
	cancel        context.CancelFunc
	readyState    ReadyState
	buffered      int64
	total         int64
	streamer      beep.StreamSeekCloser
	format        beep.Format
	ctrl          *beep.Ctrl
	volume        *effects.Volume
	state         State
	level         float64
	muted         bool
	loop          bool
	playRequested bool
}

func (s *Stream) Source() string { return s.url }

func (s *Stream) LoadState() LoadState { return s.life.loadState() }

func (s *Stream) ReadyState() ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyState
}

// Buffered returns the downloaded byte count and the expected total, which
// is -1 when the server did not announce a length.
func (s *Stream) Buffered() (n, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffered, s.total
}

func (s *Stream) OnceReady(fn func())      { s.life.onceReady(fn) }
func (s *Stream) OnceError(fn func(error)) { s.life.onceError(fn) }
func (s *Stream) OnEnded(fn func())        { s.life.addEnded(fn) }

// Load starts the download in the background.
func (s *Stream) Load() {
	s.mu.Lock()
	if s.loading || s.state == Released {
		s.mu.Unlock()
		return
	}
	s.loading = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.fetch(ctx)
}

func (s *Stream) fetch(ctx context.Context) {
	data, err := s.download(ctx)
	if err != nil {
		s.fail(err)
		return
	}

	streamer, format, err := decodeGoMP3(bufferSource{bytes.NewReader(data)})
	if err != nil {
		s.fail(fmt.Errorf("%w: decode: %w", ErrLoad, err))
		return
	}

	s.mu.Lock()
	if s.state == Released {
		s.mu.Unlock()
		streamer.Close()
		return
	}
	s.streamer = streamer
	s.format = format
	s.readyState = HaveEnoughData
	s.mu.Unlock()

	log.Debug().
		Str("url", s.url).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int("sample_rate", int(format.SampleRate)).
		Msg("audio ready")

	s.life.markReady()

	s.mu.Lock()
	start := s.playRequested && s.state == Idle
	s.playRequested = false
	s.mu.Unlock()
	if start {
		if err := s.Play(); err != nil {
			log.Warn().Err(err).Str("url", s.url).Msg("deferred play failed")
		}
	}
}

func (s *Stream) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrLoad, err)
	}
	req.Header.Set("Cache-Control", "no-store, no-cache")
	req.Header.Set("Pragma", "no-cache")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status: %s", ErrLoad, resp.Status)
	}

	s.mu.Lock()
	s.readyState = HaveMetadata
	s.total = resp.ContentLength
	s.mu.Unlock()

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	chunk := make([]byte, readChunk)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			s.mu.Lock()
			s.buffered += int64(n)
			if s.readyState < HaveCurrentData {
				s.readyState = HaveCurrentData
			}
			s.mu.Unlock()
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %w", ErrLoad, err)
		}
	}
	return buf.Bytes(), nil
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	released := s.state == Released
	s.mu.Unlock()
	if released {
		return
	}
	log.Debug().Err(err).Str("url", s.url).Msg("audio load failed")
	s.life.markFailed(err)
}

// bufferSource adapts a bytes.Reader to the decoder's ReadCloser.
type bufferSource struct {
	*bytes.Reader
}

func (bufferSource) Close() error { return nil }
