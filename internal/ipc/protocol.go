package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/TimeoutWarden/internal/eval"
	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const (
	ObjectPath    = "/io/github/soarinferret/timeoutwarden"
	InterfaceName = "io.github.soarinferret.timeoutwarden.Manager"
	ServiceName   = "io.github.soarinferret.timeoutwarden"
)

// Controller is the part of the handler exposed on the bus.
type Controller interface {
	Status() handler.Status
	Poll(ctx context.Context) eval.Decision
	Extend(ctx context.Context) error
	Dismiss(kind warning.Kind)
	Logout(ctx context.Context)
}

// TimeoutManager is the exported D-Bus object.
type TimeoutManager struct {
	Ctx     context.Context
	Handler Controller
}

func (m *TimeoutManager) ctx() context.Context {
	if m.Ctx == nil {
		return context.Background()
	}
	return m.Ctx
}

// GetStatus returns the handler status as JSON.
func (m *TimeoutManager) GetStatus() (string, *dbus.Error) {
	data, err := json.Marshal(m.Handler.Status())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// Poll runs one evaluation and returns the action taken.
func (m *TimeoutManager) Poll() (string, *dbus.Error) {
	d := m.Handler.Poll(m.ctx())
	return d.Action.String(), nil
}

func (m *TimeoutManager) Extend() *dbus.Error {
	if err := m.Handler.Extend(m.ctx()); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Dismiss hides the warning with the given data-modal-type.
func (m *TimeoutManager) Dismiss(modalType string) *dbus.Error {
	kind, err := warning.KindForModalType(modalType)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	m.Handler.Dismiss(kind)
	return nil
}

func (m *TimeoutManager) Logout() *dbus.Error {
	m.Handler.Logout(m.ctx())
	return nil
}

// Serve claims ServiceName on conn and exports h until ctx is done.
func Serve(ctx context.Context, conn *dbus.Conn, h Controller) error {
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}
	defer conn.ReleaseName(ServiceName)

	tm := &TimeoutManager{Ctx: ctx, Handler: h}
	if err := conn.Export(tm, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}

	<-ctx.Done()
	return nil
}

// Client calls the exported object from another process.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func Dial() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(ServiceName, dbus.ObjectPath(ObjectPath))}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Status() (handler.Status, error) {
	var raw string
	var st handler.Status
	if err := c.obj.Call(InterfaceName+".GetStatus", 0).Store(&raw); err != nil {
		return st, err
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return st, fmt.Errorf("failed to decode status: %w", err)
	}
	if st.Schedule != nil {
		st.Schedule.Skew = st.Skew
	}
	return st, nil
}

func (c *Client) Poll() (string, error) {
	var action string
	err := c.obj.Call(InterfaceName+".Poll", 0).Store(&action)
	return action, err
}

func (c *Client) Extend() error {
	return c.obj.Call(InterfaceName+".Extend", 0).Err
}

func (c *Client) Dismiss(modalType string) error {
	return c.obj.Call(InterfaceName+".Dismiss", 0, modalType).Err
}

func (c *Client) Logout() error {
	return c.obj.Call(InterfaceName+".Logout", 0).Err
}
