package loginctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	login1Service   = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	managerIface    = "org.freedesktop.login1.Manager"
	sessionIface    = "org.freedesktop.login1.Session"
	propertiesIface = "org.freedesktop.DBus.Properties"
)

// Wake names why the warnings should be re-evaluated.
type Wake string

const (
	Resumed  Wake = "resumed"
	Unlocked Wake = "unlocked"
)

// Watch calls onWake whenever the machine resumes from sleep or one of uid's
// sessions is unlocked. Timers do not advance while suspended, so deadlines
// may have passed without a poll.
func Watch(ctx context.Context, conn *dbus.Conn, uid uint32, onWake func(Wake), logger *slog.Logger) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(managerIface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}
	// watch for property changes (session unlocked)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchArg(0, sessionIface),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	for {
		select {
		case sig := <-c:
			wake, ok := wakeFor(sig)
			if !ok {
				continue
			}
			if wake == Unlocked {
				owner, err := sessionUID(conn, sig.Path)
				if err != nil {
					logger.Warn("failed to get session owner", "session", sig.Path, "err", err)
					continue
				}
				if owner != uid {
					continue
				}
			}
			logger.Info("re-evaluating session after wake", "reason", wake)
			onWake(wake)
		case <-ctx.Done():
			return nil
		}
	}
}

// wakeFor maps a logind signal to a wake reason. Going to sleep and locking
// are ignored.
func wakeFor(sig *dbus.Signal) (Wake, bool) {
	switch sig.Name {
	case managerIface + ".PrepareForSleep":
		if len(sig.Body) > 0 {
			if sleeping, ok := sig.Body[0].(bool); ok && !sleeping {
				return Resumed, true
			}
		}
	case propertiesIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			break
		}
		if iface, _ := sig.Body[0].(string); iface != sessionIface {
			break
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			break
		}
		if val, exists := changed["LockedHint"]; exists {
			if locked, ok := val.Value().(bool); ok && !locked {
				return Unlocked, true
			}
		}
	}
	return "", false
}

func sessionUID(conn *dbus.Conn, sessionPath dbus.ObjectPath) (uint32, error) {
	obj := conn.Object(login1Service, sessionPath)
	var user dbus.Variant
	if err := obj.Call(propertiesIface+".Get", 0, sessionIface, "User").Store(&user); err != nil {
		return 0, err
	}
	// User is (uo): uid and user object path
	fields, ok := user.Value().([]interface{})
	if !ok || len(fields) < 1 {
		return 0, fmt.Errorf("unexpected User property %v", user.Value())
	}
	uid, ok := fields[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected uid type %T", fields[0])
	}
	return uid, nil
}
