package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge feeds handler output into a running program.
type Bridge struct {
	sender Sender
}

func NewBridge(s Sender) *Bridge {
	return &Bridge{sender: s}
}

// Surface returns the modal surface for kind.
func (b *Bridge) Surface(kind warning.Kind) warning.Surface {
	return surface{sender: b.sender, kind: kind}
}

func (b *Bridge) ShowToast(t warning.Toast) error {
	b.sender.Send(toastMsg(t))
	return nil
}

// Status forwards a handler status snapshot.
func (b *Bridge) Status(st handler.Status) {
	b.sender.Send(StatusMsg(st))
}

func (b *Bridge) Ended() {
	b.sender.Send(EndedMsg{})
}

type surface struct {
	sender Sender
	kind   warning.Kind
}

func (s surface) Show() error {
	s.sender.Send(modalMsg{kind: s.kind, visible: true})
	return nil
}

func (s surface) Hide() error {
	s.sender.Send(modalMsg{kind: s.kind, visible: false})
	return nil
}
