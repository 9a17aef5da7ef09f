package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

type (
	// StatusMsg carries a fresh handler status.
	StatusMsg handler.Status

	modalMsg struct {
		kind    warning.Kind
		visible bool
	}

	toastMsg warning.Toast

	toastExpiredMsg struct{ seq int }

	// EndedMsg tells the model the session has been logged out.
	EndedMsg struct{}
)

type toastEntry struct {
	seq   int
	toast warning.Toast
}

// Model renders the session status, the warning modals and toasts.
type Model struct {
	dispatch func(warning.Click)
	texts    map[warning.Kind]warning.Text
	now      func() time.Time

	status  handler.Status
	visible map[warning.Kind]bool
	toasts  []toastEntry
	seq     int
	ended   bool
}

// NewModel returns a model that reports button presses to dispatch.
func NewModel(dispatch func(warning.Click)) Model {
	texts := make(map[warning.Kind]warning.Text, len(warning.Kinds))
	for _, k := range warning.Kinds {
		texts[k] = warning.DefaultText(k)
	}
	return Model{
		dispatch: dispatch,
		texts:    texts,
		now:      time.Now,
		visible:  make(map[warning.Kind]bool),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// activeModal is the modal keys apply to. At most one is ever visible.
func (m Model) activeModal() (warning.Kind, bool) {
	for _, k := range warning.Kinds {
		if m.visible[k] {
			return k, true
		}
	}
	return "", false
}

func (m Model) click(kind warning.Kind, control warning.Control) tea.Cmd {
	c := warning.Click{ModalType: kind.ModalType(), Control: control}
	return func() tea.Msg {
		m.dispatch(c)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			return m, tea.Quit
		}
		kind, ok := m.activeModal()
		if !ok {
			return m, nil
		}
		switch key {
		case "enter", "e", "y":
			return m, m.click(kind, warning.Primary)
		case "c", "n":
			return m, m.click(kind, warning.Secondary)
		case "esc", "x":
			return m, m.click(kind, warning.Close)
		}
		return m, nil

	case StatusMsg:
		m.status = handler.Status(msg)
		return m, nil

	case modalMsg:
		m.visible = cloneVisible(m.visible)
		m.visible[msg.kind] = msg.visible
		return m, nil

	case toastMsg:
		m.seq++
		seq := m.seq
		m.toasts = append(append([]toastEntry{}, m.toasts...), toastEntry{seq: seq, toast: warning.Toast(msg)})
		return m, tea.Tick(msg.Duration, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: seq}
		})

	case toastExpiredMsg:
		kept := make([]toastEntry, 0, len(m.toasts))
		for _, t := range m.toasts {
			if t.seq != msg.seq {
				kept = append(kept, t)
			}
		}
		m.toasts = kept
		return m, nil

	case EndedMsg:
		m.ended = true
		m.visible = make(map[warning.Kind]bool)
		return m, nil
	}
	return m, nil
}

func cloneVisible(in map[warning.Kind]bool) map[warning.Kind]bool {
	out := make(map[warning.Kind]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("TimeoutWarden"))
	b.WriteString("\n\n")

	if m.ended {
		b.WriteString("Session ended. Log back in to continue.\n\n")
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	if s := m.status.Schedule; s != nil {
		serverNow := s.ServerNow(m.now())
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("inactivity timeout in"), formatRemaining(s.InactivityTimeout-serverNow))
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("session ends in     "), formatRemaining(s.TotalTimeout-serverNow))
		if s.Skew != 0 {
			fmt.Fprintf(&b, "%s %ds\n", labelStyle.Render("clock skew          "), s.Skew)
		}
	} else {
		b.WriteString(labelStyle.Render("no session timeout data"))
		b.WriteString("\n")
	}

	if kind, ok := m.activeModal(); ok {
		text := m.texts[kind]
		body := modalTitleStyle.Render(text.Heading) + "\n" + text.Body + "\n\n" +
			keyStyle.Render("[enter]") + " " + text.Primary + "  " +
			keyStyle.Render("[c]") + " " + text.Secondary + "  " +
			keyStyle.Render("[esc]") + " close"
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(body))
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		style := successToastStyle
		if t.toast.Type == warning.ToastError {
			style = errorToastStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(t.toast.Content))
	}
	if len(m.toasts) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

// formatRemaining renders a number of seconds for humans.
func formatRemaining(seconds int64) string {
	if seconds <= 0 {
		return "now"
	}
	d := time.Duration(seconds) * time.Second
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
