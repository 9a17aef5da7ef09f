package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const (
	busName       = "org.freedesktop.Notifications"
	objectPath    = "/org/freedesktop/Notifications"
	interfaceName = "org.freedesktop.Notifications"

	// NotificationClosed reasons
	closedExpired   = uint32(1)
	closedDismissed = uint32(2)
)

// caller is the part of dbus.BusObject the notifier uses.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier shows toasts and warning modals as desktop notifications.
type Notifier struct {
	conn    *dbus.Conn
	obj     caller
	appName string
	logger  *slog.Logger

	mu     sync.Mutex
	modals map[uint32]warning.Kind
}

// Connect opens the user's session bus.
func Connect(appName string, logger *slog.Logger) (*Notifier, error) {
	conn, err := connectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	n := newNotifier(conn.Object(busName, objectPath), appName, logger)
	n.conn = conn
	return n, nil
}

func newNotifier(obj caller, appName string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		obj:     obj,
		appName: appName,
		logger:  logger,
		modals:  make(map[uint32]warning.Kind),
	}
}

func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

func (n *Notifier) notify(replaces uint32, icon, summary, body string, actions []string, urgency byte, expireMs int32) (uint32, error) {
	call := n.obj.Call(interfaceName+".Notify", 0,
		n.appName,
		replaces,
		icon,
		summary,
		body,
		actions,
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(urgency),
		},
		expireMs,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}

// ShowToast sends a transient notification that expires after the toast
// duration.
func (n *Notifier) ShowToast(t warning.Toast) error {
	icon, urgency := "dialog-information", byte(0)
	if t.Type == warning.ToastError {
		icon, urgency = "dialog-error", byte(1)
	}
	_, err := n.notify(0, icon, t.Content, "", nil, urgency, int32(t.Duration.Milliseconds()))
	return err
}

// Modal returns the surface for kind.
func (n *Notifier) Modal(kind warning.Kind, text warning.Text) *Modal {
	return &Modal{n: n, kind: kind, text: text}
}

// Modal is a persistent notification with primary and secondary actions.
type Modal struct {
	n    *Notifier
	kind warning.Kind
	text warning.Text

	mu sync.Mutex
	id uint32
}

func (m *Modal) Show() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions := []string{
		string(warning.Primary), m.text.Primary,
		string(warning.Secondary), m.text.Secondary,
	}
	id, err := m.n.notify(m.id, "dialog-warning", m.text.Heading, m.text.Body, actions, 2, 0)
	if err != nil {
		return err
	}
	m.n.mu.Lock()
	delete(m.n.modals, m.id)
	m.n.modals[id] = m.kind
	m.n.mu.Unlock()
	m.id = id
	return nil
}

func (m *Modal) Hide() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id == 0 {
		return nil
	}
	id := m.id
	m.id = 0
	if !m.n.forget(id) {
		// already closed by the user
		return nil
	}
	call := m.n.obj.Call(interfaceName+".CloseNotification", 0, id)
	if call.Err != nil {
		return fmt.Errorf("failed to close notification %d: %w", id, call.Err)
	}
	return nil
}

// forget drops a tracked modal id and reports whether it was tracked.
func (n *Notifier) forget(id uint32) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.modals[id]
	delete(n.modals, id)
	return ok
}

// Watch listens for notification actions and turns them into clicks.
func (n *Notifier) Watch(ctx context.Context, dispatch func(warning.Click)) error {
	if n.conn == nil {
		return fmt.Errorf("notifier has no bus connection")
	}
	for _, member := range []string{"ActionInvoked", "NotificationClosed"} {
		if err := n.conn.AddMatchSignal(
			dbus.WithMatchObjectPath(objectPath),
			dbus.WithMatchInterface(interfaceName),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("add match failed: %w", err)
		}
	}

	c := make(chan *dbus.Signal, 10)
	n.conn.Signal(c)
	defer n.conn.RemoveSignal(c)

	for {
		select {
		case sig := <-c:
			if click, ok := n.clickFor(sig); ok {
				dispatch(click)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// clickFor maps a notification signal on one of our modals to a click.
func (n *Notifier) clickFor(sig *dbus.Signal) (warning.Click, bool) {
	if sig == nil || len(sig.Body) < 2 {
		return warning.Click{}, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return warning.Click{}, false
	}

	n.mu.Lock()
	kind, tracked := n.modals[id]
	n.mu.Unlock()
	if !tracked {
		return warning.Click{}, false
	}

	switch sig.Name {
	case interfaceName + ".ActionInvoked":
		key, _ := sig.Body[1].(string)
		var control warning.Control
		switch key {
		case string(warning.Primary):
			control = warning.Primary
		case string(warning.Secondary):
			control = warning.Secondary
		default:
			// "default" is a click on the notification body
			return warning.Click{}, false
		}
		n.forget(id)
		return warning.Click{ModalType: kind.ModalType(), Control: control}, true

	case interfaceName + ".NotificationClosed":
		reason, _ := sig.Body[1].(uint32)
		if reason != closedDismissed && reason != closedExpired {
			return warning.Click{}, false
		}
		n.forget(id)
		n.logger.Debug("warning notification closed", "kind", kind, "reason", reason)
		return warning.Click{ModalType: kind.ModalType(), Control: warning.Close}, true
	}
	return warning.Click{}, false
}
