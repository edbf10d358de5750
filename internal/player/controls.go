package player

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Play starts playback, resumes a paused handle, or restarts an ended one.
func (s *Stream) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Released:
		return ErrReleased
	case Playing:
		return nil
	case Paused:
		if s.ctrl != nil {
			speaker.Lock()
			s.ctrl.Paused = false
			speaker.Unlock()
			s.state = Playing
			return nil
		}
	case Idle, Ended:
	}

	if s.streamer == nil {
		if err := s.life.loadErr(); err != nil {
			return err
		}
		s.playRequested = true
		return nil
	}
	return s.startLocked()
}

func (s *Stream) startLocked() error {
	rate, err := ensureSpeaker(s.format.SampleRate)
	if err != nil {
		return err
	}
	if err := s.streamer.Seek(0); err != nil {
		return err
	}

	var src beep.Streamer = s.streamer
	if s.loop {
		src = beep.Loop(-1, s.streamer)
	}
	if s.format.SampleRate != rate {
		src = beep.Resample(4, s.format.SampleRate, rate, src)
	}

	ctrl := &beep.Ctrl{Streamer: src}
	s.ctrl = ctrl
	s.volume = &effects.Volume{
		Streamer: ctrl,
		Base:     2,
		Volume:   levelToVolume(s.level),
		Silent:   s.muted || s.level <= 0,
	}
	s.state = Playing

	// The callback runs with the speaker locked.
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		go s.finished(ctrl)
	})))
	return nil
}

func (s *Stream) finished(ctrl *beep.Ctrl) {
	s.mu.Lock()
	if s.ctrl != ctrl || s.state != Playing {
		s.mu.Unlock()
		return
	}
	s.state = Ended
	s.ctrl = nil
	s.volume = nil
	s.mu.Unlock()

	s.life.fireEnded()
}

// Pause pauses playback.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		s.playRequested = false
		return
	}
	if !s.state.CanPause() || s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.state = Paused
}

// Stop halts playback, cancels any pending download and releases the
// decoded stream. A handle still loading settles as failed with ErrReleased.
func (s *Stream) Stop() {
	s.mu.Lock()
	if s.state == Released {
		s.mu.Unlock()
		return
	}
	s.state = Released
	cancel := s.cancel
	ctrl := s.ctrl
	streamer := s.streamer
	s.ctrl, s.volume, s.streamer = nil, nil, nil
	s.playRequested = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ctrl != nil {
		// A nil streamer drains the sequence without firing end callbacks.
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()
	}
	if streamer != nil {
		streamer.Close()
	}

	s.life.markFailed(ErrReleased)
	s.life.dropCallbacks()
}

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Stream) Playing() bool { return s.State() == Playing }

func (s *Stream) Ended() bool { return s.State() == Ended }

// Volume returns the volume level (0.0 to 1.0).
func (s *Stream) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetVolume sets the volume level, clamped to 0.0 to 1.0.
func (s *Stream) SetVolume(level float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = clampLevel(level)
	if s.volume != nil {
		speaker.Lock()
		s.volume.Volume = levelToVolume(s.level)
		s.volume.Silent = s.muted || s.level <= 0
		speaker.Unlock()
	}
}

func (s *Stream) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetMuted silences the handle without losing its volume level.
func (s *Stream) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muted = muted
	if s.volume != nil {
		speaker.Lock()
		s.volume.Silent = muted || s.level <= 0
		speaker.Unlock()
	}
}

func (s *Stream) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop makes the next playback repeat forever. It does not affect a
// playback already in progress.
func (s *Stream) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}
