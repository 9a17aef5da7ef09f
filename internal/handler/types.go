package handler

import (
	"fmt"
	"time"

	"github.com/SoarinFerret/TimeoutWarden/internal/eval"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

// Phase is the poller state: Idle -> Checking -> (Idle | LoggedOut).
type Phase int

const (
	Idle Phase = iota
	Checking
	LoggedOut
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case LoggedOut:
		return "logged_out"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{Idle, Checking, LoggedOut} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Event is published after every poll.
type Event struct {
	Decision eval.Decision
	Schedule *timeout.Schedule
	At       time.Time
}

type WarningStatus struct {
	Visible   bool  `json:"visible" yaml:"visible"`
	Inert     bool  `json:"inert" yaml:"inert"`
	LastShown int64 `json:"last_shown,omitempty" yaml:"last_shown,omitempty"`
}

type Status struct {
	Phase     Phase                          `json:"phase" yaml:"phase"`
	CheckedAt time.Time                      `json:"checked_at" yaml:"checked_at"`
	Decision  string                         `json:"decision" yaml:"decision"`
	Reason    string                         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Schedule  *timeout.Schedule              `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	Skew      int64                          `json:"skew" yaml:"-"`
	Warnings  map[warning.Kind]WarningStatus `json:"warnings" yaml:"warnings"`
}
