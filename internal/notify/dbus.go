package notify

import (
	"fmt"
	"time"

	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"
)

// DBusPopup sends notifications to org.freedesktop.Notifications on the
// session bus.
type DBusPopup struct {
	conn    *dbus.Conn
	appName string
	icon    string
	urgency notify.Urgency
	timeout time.Duration
	connect func() (*dbus.Conn, error)
	send    func(conn *dbus.Conn, n notify.Notification) (uint32, error)
}

// NewDBusPopup creates a popup that connects to the session bus on first use,
// so runs that show nothing work without a bus. A zero timeout keeps the
// popup until dismissed; a negative one defers to the notification server.
func NewDBusPopup(appName, icon, urgency string, timeout time.Duration) *DBusPopup {
	return &DBusPopup{
		appName: appName,
		icon:    icon,
		urgency: parseUrgency(urgency),
		timeout: timeout,
		connect: dbus.SessionBus,
		send:    notify.SendNotification,
	}
}

// Show sends one notification.
func (p *DBusPopup) Show(title, body string) error {
	n := notify.Notification{
		AppName: p.appName,
		AppIcon: p.icon,
		Summary: title,
		Body:    body,
		Hints: map[string]dbus.Variant{
			"category": dbus.MakeVariant("device"),
		},
	}
	switch {
	case p.timeout == 0:
		n.ExpireTimeout = notify.ExpireTimeoutNever
	case p.timeout < 0:
		n.ExpireTimeout = notify.ExpireTimeoutSetByNotificationServer
	default:
		n.ExpireTimeout = p.timeout
	}
	n.SetUrgency(p.urgency)

	if p.conn == nil {
		conn, err := p.connect()
		if err != nil {
			return fmt.Errorf("connect session bus: %w", err)
		}
		p.conn = conn
	}
	if _, err := p.send(p.conn, n); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Close closes the bus connection.
func (p *DBusPopup) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func parseUrgency(s string) notify.Urgency {
	switch s {
	case "low":
		return notify.UrgencyLow
	case "normal":
		return notify.UrgencyNormal
	default:
		return notify.UrgencyCritical
	}
}
