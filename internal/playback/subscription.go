package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	BackgroundChanged <-chan BackgroundChange
	EffectReloaded    <-chan EffectReload
	Notice            <-chan Notice
	Error             <-chan ErrorEvent
	Done              <-chan struct{}

	// Internal write channels
	backgroundCh chan BackgroundChange
	effectCh     chan EffectReload
	noticeCh     chan Notice
	errorCh      chan ErrorEvent
	doneCh       chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		backgroundCh: make(chan BackgroundChange, eventBufferSize),
		effectCh:     make(chan EffectReload, eventBufferSize),
		noticeCh:     make(chan Notice, eventBufferSize),
		errorCh:      make(chan ErrorEvent, eventBufferSize),
		doneCh:       make(chan struct{}),
	}
	s.BackgroundChanged = s.backgroundCh
	s.EffectReloaded = s.effectCh
	s.Notice = s.noticeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendBackground sends a background change event (non-blocking).
func (s *Subscription) sendBackground(e BackgroundChange) {
	select {
	case s.backgroundCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendEffect sends an effect reload event (non-blocking).
func (s *Subscription) sendEffect(e EffectReload) {
	select {
	case s.effectCh <- e:
	default:
	}
}

// sendNotice sends a notice event (non-blocking).
func (s *Subscription) sendNotice(e Notice) {
	select {
	case s.noticeCh <- e:
	default:
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
