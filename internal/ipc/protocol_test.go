package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/TimeoutWarden/internal/eval"
	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

type fakeController struct {
	status    handler.Status
	extendErr error
	polled    int
	dismissed []warning.Kind
	loggedOut bool
}

func (f *fakeController) Status() handler.Status { return f.status }

func (f *fakeController) Poll(ctx context.Context) eval.Decision {
	f.polled++
	return eval.Decision{Action: eval.ShowWarning, Kind: warning.Inactivity}
}

func (f *fakeController) Extend(ctx context.Context) error { return f.extendErr }

func (f *fakeController) Dismiss(kind warning.Kind) { f.dismissed = append(f.dismissed, kind) }

func (f *fakeController) Logout(ctx context.Context) { f.loggedOut = true }

func TestGetStatus(t *testing.T) {
	fc := &fakeController{status: handler.Status{
		Phase:    handler.Idle,
		Decision: "noop",
		Schedule: &timeout.Schedule{InactivityWarning: 10, InactivityTimeout: 20, TotalWarning: 30, TotalTimeout: 40, CurrentTime: 5, Skew: 2},
		Skew:     2,
		Warnings: map[warning.Kind]handler.WarningStatus{
			warning.Inactivity: {Visible: true, LastShown: 10},
		},
	}}
	tm := &TimeoutManager{Handler: fc}

	raw, dErr := tm.GetStatus()
	require.Nil(t, dErr)

	var st handler.Status
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	assert.Equal(t, handler.Idle, st.Phase)
	assert.Equal(t, int64(2), st.Skew)
	assert.Equal(t, int64(40), st.Schedule.TotalTimeout)
	assert.True(t, st.Warnings[warning.Inactivity].Visible)
	assert.Contains(t, raw, `"phase":"idle"`)
}

func TestPoll(t *testing.T) {
	fc := &fakeController{}
	tm := &TimeoutManager{Handler: fc}

	action, dErr := tm.Poll()
	require.Nil(t, dErr)
	assert.Equal(t, "show_warning", action)
	assert.Equal(t, 1, fc.polled)
}

func TestExtend(t *testing.T) {
	fc := &fakeController{}
	tm := &TimeoutManager{Handler: fc}
	assert.Nil(t, tm.Extend())

	fc.extendErr = errors.New("rejected")
	dErr := tm.Extend()
	require.NotNil(t, dErr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", dErr.Name)
}

func TestDismiss(t *testing.T) {
	fc := &fakeController{}
	tm := &TimeoutManager{Handler: fc}

	assert.Nil(t, tm.Dismiss("session-length-warning"))
	assert.Equal(t, []warning.Kind{warning.TotalLength}, fc.dismissed)

	assert.NotNil(t, tm.Dismiss("bogus"))
	assert.Len(t, fc.dismissed, 1)
}

func TestLogout(t *testing.T) {
	fc := &fakeController{}
	tm := &TimeoutManager{Handler: fc}
	assert.Nil(t, tm.Logout())
	assert.True(t, fc.loggedOut)
}
