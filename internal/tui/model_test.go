package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

type sink struct {
	msgs []tea.Msg
}

func (s *sink) Send(msg tea.Msg) { s.msgs = append(s.msgs, msg) }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeysDispatchToVisibleModal(t *testing.T) {
	var clicks []warning.Click
	m := NewModel(func(c warning.Click) { clicks = append(clicks, c) })

	// no modal, keys do nothing
	m, cmd := update(t, m, key("enter"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, modalMsg{kind: warning.Inactivity, visible: true})

	tests := []struct {
		key     string
		control warning.Control
	}{
		{"enter", warning.Primary},
		{"e", warning.Primary},
		{"c", warning.Secondary},
		{"esc", warning.Close},
		{"x", warning.Close},
	}
	for _, tt := range tests {
		_, cmd := update(t, m, key(tt.key))
		require.NotNil(t, cmd, tt.key)
		cmd()
		last := clicks[len(clicks)-1]
		assert.Equal(t, warning.Click{ModalType: "session-inactivity-warning", Control: tt.control}, last, tt.key)
	}
	assert.Len(t, clicks, len(tests))
}

func TestModalVisibility(t *testing.T) {
	m := NewModel(func(warning.Click) {})
	m, _ = update(t, m, modalMsg{kind: warning.TotalLength, visible: true})
	assert.Contains(t, m.View(), "maximum length")

	m, _ = update(t, m, modalMsg{kind: warning.TotalLength, visible: false})
	assert.NotContains(t, m.View(), "maximum length")
}

func TestToastsExpire(t *testing.T) {
	m := NewModel(func(warning.Click) {})
	m, cmd := update(t, m, toastMsg(warning.Toast{Content: "Session successfully extended", Type: warning.ToastSuccess, Duration: time.Millisecond}))
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Session successfully extended")

	m, _ = update(t, m, toastExpiredMsg{seq: 1})
	assert.NotContains(t, m.View(), "Session successfully extended")
}

func TestStatusView(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	m := NewModel(func(warning.Click) {})
	m.now = func() time.Time { return now }

	assert.Contains(t, m.View(), "no session timeout data")

	m, _ = update(t, m, StatusMsg(handler.Status{
		Schedule: &timeout.Schedule{
			InactivityTimeout: now.Unix() + 90,
			TotalTimeout:      now.Unix() + 2*3600 + 60,
		},
	}))
	view := m.View()
	assert.Contains(t, view, "1m 30s")
	assert.Contains(t, view, "2h 1m")
}

func TestEndedScreen(t *testing.T) {
	var clicks int
	m := NewModel(func(warning.Click) { clicks++ })
	m, _ = update(t, m, modalMsg{kind: warning.TotalLength, visible: true})

	m, cmd := update(t, m, EndedMsg{})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Session ended")

	// modals are gone, so keys no longer click anything
	_, cmd = update(t, m, key("enter"))
	assert.Nil(t, cmd)

	_, cmd = update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Zero(t, clicks)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "now", formatRemaining(0))
	assert.Equal(t, "now", formatRemaining(-5))
	assert.Equal(t, "45s", formatRemaining(45))
	assert.Equal(t, "5m 0s", formatRemaining(300))
	assert.Equal(t, "1h 0m", formatRemaining(3600))
}

func TestBridge(t *testing.T) {
	s := &sink{}
	b := NewBridge(s)

	require.NoError(t, b.Surface(warning.Inactivity).Show())
	require.NoError(t, b.Surface(warning.Inactivity).Hide())
	require.NoError(t, b.ShowToast(warning.Toast{ID: warning.ExtendedToastID}))
	b.Status(handler.Status{Decision: "noop"})
	b.Ended()

	require.Len(t, s.msgs, 5)
	assert.Equal(t, modalMsg{kind: warning.Inactivity, visible: true}, s.msgs[0])
	assert.Equal(t, modalMsg{kind: warning.Inactivity, visible: false}, s.msgs[1])
	assert.Equal(t, toastMsg(warning.Toast{ID: warning.ExtendedToastID}), s.msgs[2])
	assert.Equal(t, "noop", handler.Status(s.msgs[3].(StatusMsg)).Decision)
	assert.Equal(t, EndedMsg{}, s.msgs[4])
}
