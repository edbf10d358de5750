//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")

	appName = "Soundloader"
	appID   = "soundloader"
)

// dbusNotifier talks to the session's notification daemon.
type dbusNotifier struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// New connects to the session bus. Without one, notices are dropped.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Debug().Err(err).Msg("no session bus, desktop notices disabled")
		return discard{}, nil //nolint:nilerr // notices are optional
	}
	return &dbusNotifier{conn: conn, obj: conn.Object(notificationsName, notificationsPath)}, nil
}

// Notify shows notif, replacing notif.ReplacesID when set, and returns
// the id assigned by the daemon.
func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	var id uint32
	err := n.obj.Call(notificationsName+".Notify", 0,
		appName,
		notif.ReplacesID,
		notif.Icon,
		notif.Title,
		notif.Body,
		[]string{},
		hints(notif),
		notif.Timeout,
	).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// hints builds the freedesktop hint map for notif.
func hints(notif Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(appID),
	}
	if notif.Category != "" {
		h["category"] = dbus.MakeVariant(notif.Category)
	}
	if notif.Transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}

// Close dismisses the notification with the given id.
func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(notificationsName+".CloseNotification", 0, id).Err
}
