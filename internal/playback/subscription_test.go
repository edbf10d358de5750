package playback

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/llehouerou/soundloader/internal/errmsg"
	"github.com/llehouerou/soundloader/internal/player"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendBackground(BackgroundChange{Current: &Track{Index: 3}, Generation: 7})
		sub.sendEffect(EffectReload{Name: "shoot"})
		sub.sendNotice(Notice{Message: "hello", Duration: 3 * time.Second})
		sub.sendError(ErrorEvent{Operation: errmsg.OpBackgroundPlay, Err: errors.New("x")})

		bg := <-sub.BackgroundChanged
		if bg.Current.Index != 3 || bg.Generation != 7 {
			t.Errorf("BackgroundChanged = %+v", bg)
		}

		fx := <-sub.EffectReloaded
		if fx.Name != "shoot" {
			t.Errorf("EffectReloaded.Name = %q, want shoot", fx.Name)
		}

		n := <-sub.Notice
		if n.Message != "hello" || n.Duration != 3*time.Second {
			t.Errorf("Notice = %+v", n)
		}

		e := <-sub.Error
		if e.Operation != errmsg.OpBackgroundPlay {
			t.Errorf("Error.Operation = %q, want play", e.Operation)
		}
	})
}

func TestSubscription_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	for range eventBufferSize + 5 {
		sub.sendNotice(Notice{Message: "x"})
	}

	if got := len(sub.Notice); got != eventBufferSize {
		t.Errorf("buffered notices = %d, want %d", got, eventBufferSize)
	}
}

func TestService_BroadcastsToAllSubscribers(t *testing.T) {
	svc := New()
	a := svc.Subscribe()
	b := svc.Subscribe()

	_ = svc.Install(svc.NextGeneration(), player.NewMock(testPathA), Track{Index: 1, Path: testPathA})

	for _, sub := range []*Subscription{a, b} {
		select {
		case e := <-sub.BackgroundChanged:
			if e.Current.Path != testPathA {
				t.Errorf("Current.Path = %q, want %q", e.Current.Path, testPathA)
			}
			if e.Previous != nil {
				t.Errorf("Previous = %+v, want nil", e.Previous)
			}
		default:
			t.Error("subscriber did not receive BackgroundChanged")
		}
	}
}
