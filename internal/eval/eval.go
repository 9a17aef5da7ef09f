package eval

import (
	"fmt"

	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

type Action int

const (
	Noop Action = iota
	Logout
	ShowWarning
)

func (a Action) String() string {
	switch a {
	case Noop:
		return "noop"
	case Logout:
		return "logout"
	case ShowWarning:
		return "show_warning"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Decision is the outcome of one poll.
type Decision struct {
	Action    Action
	Kind      warning.Kind
	Timestamp int64
	Reason    string
}

// Evaluate applies the timeout rules to a schedule at server time now.
//
// Inactivity warnings are only raised when the inactivity timeout would end
// the session before the total-length timeout.
func Evaluate(s timeout.Schedule, snap warning.Snapshot, now int64) Decision {
	if now >= s.InactivityTimeout {
		return Decision{Action: Logout, Reason: "inactivity timeout reached"}
	}
	if now >= s.TotalTimeout {
		return Decision{Action: Logout, Reason: "total session length reached"}
	}

	if snap.AnyVisible() {
		return Decision{Action: Noop, Reason: "warning already visible"}
	}

	if !snap.Inert[warning.Inactivity] &&
		s.InactivityTimeout < s.TotalTimeout &&
		now >= s.InactivityWarning &&
		!shownFor(snap, warning.Inactivity, s.InactivityWarning) {
		return Decision{Action: ShowWarning, Kind: warning.Inactivity, Timestamp: s.InactivityWarning}
	}

	if !snap.Inert[warning.TotalLength] &&
		now >= s.TotalWarning &&
		!shownFor(snap, warning.TotalLength, s.TotalWarning) {
		return Decision{Action: ShowWarning, Kind: warning.TotalLength, Timestamp: s.TotalWarning}
	}

	return Decision{Action: Noop}
}

func shownFor(snap warning.Snapshot, kind warning.Kind, ts int64) bool {
	last, ok := snap.ShownAt(kind)
	return ok && last == ts
}

// NextEvent returns the earliest instant after now at which Evaluate could
// change its answer, or 0 when nothing is pending.
func NextEvent(s timeout.Schedule, now int64) int64 {
	var next int64
	for _, t := range []int64{s.InactivityWarning, s.InactivityTimeout, s.TotalWarning, s.TotalTimeout} {
		if t > now && (next == 0 || t < next) {
			next = t
		}
	}
	return next
}
