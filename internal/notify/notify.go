// Package notify provides desktop notifications via D-Bus.
package notify

import "time"

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
	Category   string  // freedesktop category hint, empty to omit
	Transient  bool    // keep out of the notification history
}

// CategoryReload tags notices about reloaded audio.
const CategoryReload = "x-soundloader.reload"

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// Notice builds a low-urgency notification for a short status message.
func Notice(message string, d time.Duration) Notification {
	return Notification{
		Title:     "Soundloader",
		Body:      message,
		Timeout:   int32(d.Milliseconds()), //nolint:gosec // notice durations are seconds
		Urgency:   UrgencyLow,
		Category:  CategoryReload,
		Transient: true,
	}
}

// discard drops every notification. It stands in when no notification
// daemon can be reached.
type discard struct{}

func (discard) Notify(Notification) (uint32, error) {
	return 0, nil
}

func (discard) Close(uint32) error {
	return nil
}
