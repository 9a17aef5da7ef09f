package warning

import (
	"fmt"
	"time"
)

// Kind identifies one of the two warning modals.
type Kind string

const (
	Inactivity  Kind = "inactivity"
	TotalLength Kind = "total_length"
)

// Kinds lists every warning kind in evaluation order.
var Kinds = []Kind{Inactivity, TotalLength}

// ModalType is the data-modal-type value shared by a modal and its controls.
func (k Kind) ModalType() string {
	switch k {
	case Inactivity:
		return "session-inactivity-warning"
	case TotalLength:
		return "session-length-warning"
	}
	return ""
}

// SurfaceID is the element id of the modal container.
func (k Kind) SurfaceID() string {
	return k.ModalType() + "-modal"
}

// StorageKey is the session storage key holding the last shown timestamp.
func (k Kind) StorageKey() string {
	switch k {
	case Inactivity:
		return "session_inactivity_warning_shown"
	case TotalLength:
		return "session_length_warning_shown"
	}
	return ""
}

// KindForModalType maps a data-modal-type value back to its kind.
func KindForModalType(modalType string) (Kind, error) {
	for _, k := range Kinds {
		if k.ModalType() == modalType {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown modal type %q", modalType)
}

// Control is which button of a modal was activated.
type Control string

const (
	Primary   Control = "primary"
	Secondary Control = "secondary"
	Close     Control = "close"
)

// Click is a button activation on a modal, the equivalent of a click on an
// element carrying data-modal-type plus one of data-modal-primary,
// data-modal-secondary or data-close-modal.
type Click struct {
	ModalType string
	Control   Control
}

// Surface is a modal that can be shown and hidden.
type Surface interface {
	Show() error
	Hide() error
}

// Storage is session-scoped key/value storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
)

const (
	ExtendedToastID    = "session-extended-toast"
	ExtendErrorToastID = "session-extend-error-toast"
)

// Toast is a transient notification.
type Toast struct {
	ID         string
	Content    string
	Type       ToastType
	Duration   time.Duration
	CanDismiss bool
}

type Toaster interface {
	ShowToast(Toast) error
}

// Snapshot is the presenter state the poller needs for one evaluation.
type Snapshot struct {
	Visible   map[Kind]bool
	LastShown map[Kind]int64
	Inert     map[Kind]bool
}

func (s Snapshot) AnyVisible() bool {
	for _, v := range s.Visible {
		if v {
			return true
		}
	}
	return false
}

// ShownAt reports the recorded timestamp for kind, if any.
func (s Snapshot) ShownAt(kind Kind) (int64, bool) {
	ts, ok := s.LastShown[kind]
	return ts, ok
}

// Text is the copy shown on a modal.
type Text struct {
	Heading   string
	Body      string
	Primary   string
	Secondary string
}

// DefaultText returns the stock copy for kind.
func DefaultText(kind Kind) Text {
	if kind == TotalLength {
		return Text{
			Heading:   "Warning",
			Body:      "Your session has almost reached its maximum length. Log out and log back in to continue.",
			Primary:   "Logout",
			Secondary: "Cancel",
		}
	}
	return Text{
		Heading:   "Warning",
		Body:      "Your session will expire soon due to inactivity. Would you like to extend your session?",
		Primary:   "Extend",
		Secondary: "Cancel",
	}
}
