package player

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// bytesPerFrame is one stereo 16-bit sample pair as produced by go-mp3.
const bytesPerFrame = 4

// mp3Stream adapts a go-mp3 decoder to beep.StreamSeekCloser.
type mp3Stream struct {
	decoder *mp3.Decoder
	closer  io.Closer
	err     error
	pcm     []byte
}

// decodeGoMP3 prepares src for streaming. The source should also be an
// io.Seeker so that ended handles can be replayed from the start.
func decodeGoMP3(src io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(src)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if decoder.SampleRate() == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(decoder.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Stream{decoder: decoder, closer: src, pcm: make([]byte, 8192)}, format, nil
}

func (d *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	want := len(samples) * bytesPerFrame
	if len(d.pcm) < want {
		d.pcm = make([]byte, want)
	}

	read, err := io.ReadFull(d.decoder, d.pcm[:want])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = err
		return 0, false
	}

	n = read / bytesPerFrame
	if n == 0 {
		return 0, false
	}
	for i := range n {
		frame := d.pcm[i*bytesPerFrame:]
		samples[i][0] = float64(int16(binary.LittleEndian.Uint16(frame))) / 32768.0    //nolint:gosec // audio samples
		samples[i][1] = float64(int16(binary.LittleEndian.Uint16(frame[2:]))) / 32768.0 //nolint:gosec // audio samples
	}
	return n, true
}

func (d *mp3Stream) Err() error {
	return d.err
}

func (d *mp3Stream) Len() int {
	return max(int(d.decoder.SampleCount()), 0)
}

func (d *mp3Stream) Position() int {
	return int(d.decoder.SamplePosition())
}

// Seek moves to sample p, clamped to the stream bounds.
func (d *mp3Stream) Seek(p int) error {
	p = min(max(p, 0), d.Len())
	if err := d.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *mp3Stream) Close() error {
	return d.closer.Close()
}
