package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SoarinFerret/TimeoutWarden/internal/action"
	"github.com/SoarinFerret/TimeoutWarden/internal/eval"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const extendTimeout = 30 * time.Second

type ScheduleReader interface {
	Read(ctx context.Context) *timeout.Schedule
}

type Extender interface {
	Extend(ctx context.Context) error
}

type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// SessionStore is the session-scoped storage lifecycle the handler drives.
type SessionStore interface {
	Heartbeat()
	Clear() error
}

type Messages struct {
	ExtendedSuccess string
	ExtendedError   string
	ToastDuration   time.Duration
}

type Options struct {
	Reader       ScheduleReader
	Presenter    *warning.Presenter
	Toaster      warning.Toaster
	Extender     Extender
	Navigator    Navigator
	Session      SessionStore
	LogoutURL    string
	PollInterval time.Duration
	Messages     Messages
	Now          func() time.Time
	Logger       *slog.Logger
}

// Handler is the session timeout state machine. It is safe for concurrent
// use; every state change happens under one lock.
type Handler struct {
	reader    ScheduleReader
	presenter *warning.Presenter
	toaster   warning.Toaster
	extender  Extender
	navigator Navigator
	session   SessionStore
	logoutURL string
	interval  time.Duration
	messages  Messages
	now       func() time.Time
	logger    *slog.Logger

	mu           sync.Mutex
	phase        Phase
	schedule     *timeout.Schedule
	lastDecision eval.Decision
	checkedAt    time.Time

	subMu       sync.Mutex
	subscribers []func(Event)

	repoll   chan struct{}
	done     chan struct{}
	doneOnce sync.Once
	inflight sync.WaitGroup
}

func New(opts Options) (*Handler, error) {
	if opts.Reader == nil {
		return nil, errors.New("handler: reader is required")
	}
	if opts.Presenter == nil {
		return nil, errors.New("handler: presenter is required")
	}
	if opts.Navigator == nil {
		return nil, errors.New("handler: navigator is required")
	}
	if opts.LogoutURL == "" {
		opts.LogoutURL = "/logout"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.Toaster == nil {
		opts.Toaster = warning.LogToaster{Logger: opts.Logger}
	}
	if opts.Messages.ExtendedSuccess == "" {
		opts.Messages.ExtendedSuccess = "Session successfully extended"
	}
	if opts.Messages.ExtendedError == "" {
		opts.Messages.ExtendedError = "Failed to extend session"
	}
	if opts.Messages.ToastDuration == 0 {
		opts.Messages.ToastDuration = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Handler{
		reader:    opts.Reader,
		presenter: opts.Presenter,
		toaster:   opts.Toaster,
		extender:  opts.Extender,
		navigator: opts.Navigator,
		session:   opts.Session,
		logoutURL: opts.LogoutURL,
		interval:  opts.PollInterval,
		messages:  opts.Messages,
		now:       opts.Now,
		logger:    opts.Logger,
		repoll:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Run polls immediately and then every poll interval until ctx is done or
// the session is logged out.
func (h *Handler) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("session timeout handler started", "interval", h.interval)
	h.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("session timeout handler shutting down")
			h.inflight.Wait()
			return nil
		case <-h.done:
			h.logger.Info("session ended, polling stopped")
			h.inflight.Wait()
			return nil
		case <-ticker.C:
			h.Poll(ctx)
		case <-h.repoll:
			h.Poll(ctx)
		}
	}
}

// Trigger asks the run loop for an extra poll without waiting for it.
func (h *Handler) Trigger() {
	select {
	case h.repoll <- struct{}{}:
	default:
	}
}

// Done is closed once the handler has logged out.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Poll reads the schedule and applies one evaluation. The cookie lookup and
// the logout navigation run outside the lock.
func (h *Handler) Poll(ctx context.Context) eval.Decision {
	h.mu.Lock()
	if h.phase == LoggedOut {
		h.mu.Unlock()
		return eval.Decision{Action: eval.Noop, Reason: "logged out"}
	}
	h.phase = Checking
	h.mu.Unlock()

	s := h.reader.Read(ctx)
	clientNow := h.now()

	h.mu.Lock()
	if h.phase == LoggedOut {
		// logged out while the cookie was being read
		h.mu.Unlock()
		return eval.Decision{Action: eval.Noop, Reason: "logged out"}
	}
	var d eval.Decision
	if s == nil {
		d = eval.Decision{Action: eval.Noop, Reason: "no schedule"}
	} else {
		d = eval.Evaluate(*s, h.presenter.Snapshot(), s.ServerNow(clientNow))
	}

	loggingOut := false
	switch d.Action {
	case eval.Logout:
		h.logger.Info("session timed out", "reason", d.Reason)
		loggingOut = h.beginLogoutLocked()
	case eval.ShowWarning:
		if h.presenter.Show(d.Kind, d.Timestamp) {
			h.logger.Info("showing session warning", "kind", d.Kind, "warning_at", d.Timestamp)
		} else {
			d = eval.Decision{Action: eval.Noop, Reason: fmt.Sprintf("%s warning could not be shown", d.Kind)}
		}
	default:
		h.logger.Debug("session poll", "reason", d.Reason)
	}

	if h.phase != LoggedOut {
		h.phase = Idle
		if h.session != nil {
			h.session.Heartbeat()
		}
	}
	h.schedule = s
	h.lastDecision = d
	h.checkedAt = clientNow
	ev := Event{Decision: d, Schedule: s, At: clientNow}
	h.mu.Unlock()

	if loggingOut {
		h.finishLogout(ctx)
	}
	h.publish(ev)
	return d
}

// Extend submits the extend-session request and reports the outcome with a
// toast. On success the schedule is re-read at once.
func (h *Handler) Extend(ctx context.Context) error {
	if h.extender == nil {
		return errors.New("no extender configured")
	}
	err := h.extender.Extend(ctx)

	h.presenter.Hide(warning.Inactivity)

	if err != nil {
		if errors.Is(err, action.ErrThrottled) {
			h.logger.Info("extend request throttled", "err", err)
		} else {
			h.logger.Warn("failed to extend session", "err", err)
		}
		h.toast(warning.Toast{
			ID:      warning.ExtendErrorToastID,
			Content: h.messages.ExtendedError,
			Type:    warning.ToastError,
		})
		return err
	}

	h.logger.Info("session extended")
	h.toast(warning.Toast{
		ID:      warning.ExtendedToastID,
		Content: h.messages.ExtendedSuccess,
		Type:    warning.ToastSuccess,
	})
	h.Poll(ctx)
	return nil
}

// Logout navigates to the logout URL and ends polling.
func (h *Handler) Logout(ctx context.Context) {
	h.mu.Lock()
	first := h.beginLogoutLocked()
	h.mu.Unlock()
	if first {
		h.finishLogout(ctx)
	}
}

// beginLogoutLocked moves to LoggedOut and reports whether this call did so.
func (h *Handler) beginLogoutLocked() bool {
	if h.phase == LoggedOut {
		return false
	}
	h.phase = LoggedOut
	return true
}

func (h *Handler) finishLogout(ctx context.Context) {
	if err := h.navigator.Navigate(ctx, h.logoutURL); err != nil {
		h.logger.Warn("logout navigation failed", "url", h.logoutURL, "err", err)
	}
	if h.session != nil {
		if err := h.session.Clear(); err != nil {
			h.logger.Warn("failed to clear session storage", "err", err)
		}
	}
	h.doneOnce.Do(func() { close(h.done) })
}

// Dismiss hides a warning. Its shown record stays, so the same scheduled
// warning does not come back.
func (h *Handler) Dismiss(kind warning.Kind) {
	h.presenter.Hide(kind)
	h.Trigger()
}

// HandleClick dispatches a modal button activation.
func (h *Handler) HandleClick(ctx context.Context, click warning.Click) {
	kind, err := warning.KindForModalType(click.ModalType)
	if err != nil {
		h.logger.Debug("ignoring click", "err", err)
		return
	}

	switch click.Control {
	case warning.Primary:
		if kind == warning.TotalLength {
			h.Logout(ctx)
			return
		}
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), extendTimeout)
			defer cancel()
			h.Extend(ectx)
		}()
	case warning.Secondary, warning.Close:
		h.Dismiss(kind)
	default:
		h.logger.Debug("ignoring click", "control", click.Control)
	}
}

// Wait blocks until in-flight extend requests have finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) toast(t warning.Toast) {
	t.Duration = h.messages.ToastDuration
	t.CanDismiss = true
	if err := h.toaster.ShowToast(t); err != nil {
		h.logger.Warn("failed to show toast", "id", t.ID, "err", err)
	}
}

// Subscribe registers fn to receive every evaluation.
func (h *Handler) Subscribe(fn func(Event)) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.subscribers = append(h.subscribers, fn)
}

func (h *Handler) publish(ev Event) {
	h.subMu.Lock()
	subs := append([]func(Event){}, h.subscribers...)
	h.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (h *Handler) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Status{
		Phase:     h.phase,
		CheckedAt: h.checkedAt,
		Decision:  h.lastDecision.Action.String(),
		Reason:    h.lastDecision.Reason,
		Warnings:  make(map[warning.Kind]WarningStatus, len(warning.Kinds)),
	}
	if h.schedule != nil {
		s := *h.schedule
		st.Schedule = &s
		st.Skew = s.Skew
	}
	for _, k := range warning.Kinds {
		ws := WarningStatus{Visible: h.presenter.Visible(k), Inert: h.presenter.Inert(k)}
		if ts, ok := h.presenter.LastShown(k); ok {
			ws.LastShown = ts
		}
		st.Warnings[k] = ws
	}
	return st
}
