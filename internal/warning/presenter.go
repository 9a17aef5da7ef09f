package warning

import (
	"log/slog"
	"strconv"
	"sync"
)

// Presenter owns the two warning modals. Visibility lives in memory; the
// timestamp a warning was last shown for lives in session storage so a
// restart does not repeat a warning for the same scheduled instant.
type Presenter struct {
	mu       sync.Mutex
	surfaces map[Kind]Surface
	visible  map[Kind]bool
	store    Storage
	logger   *slog.Logger
}

// NewPresenter wires surfaces by kind. A kind without a surface is logged
// and stays inert.
func NewPresenter(store Storage, surfaces map[Kind]Surface, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{
		surfaces: make(map[Kind]Surface, len(Kinds)),
		visible:  make(map[Kind]bool, len(Kinds)),
		store:    store,
		logger:   logger,
	}
	for _, k := range Kinds {
		s, ok := surfaces[k]
		if !ok || s == nil {
			logger.Error("modal not found", "id", k.SurfaceID())
			continue
		}
		p.surfaces[k] = s
	}
	return p
}

// Show un-hides the modal for kind and records ts as shown. It reports
// whether the modal became visible.
func (p *Presenter) Show(kind Kind, ts int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.surfaces[kind]
	if !ok {
		return false
	}
	if err := s.Show(); err != nil {
		p.logger.Error("failed to show warning", "kind", kind, "err", err)
		return false
	}
	p.visible[kind] = true
	if err := p.store.Set(kind.StorageKey(), strconv.FormatInt(ts, 10)); err != nil {
		p.logger.Warn("failed to record shown warning", "kind", kind, "err", err)
	}
	return true
}

// Hide re-hides the modal for kind. The shown record is kept.
func (p *Presenter) Hide(kind Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.visible[kind] = false
	s, ok := p.surfaces[kind]
	if !ok {
		return
	}
	if err := s.Hide(); err != nil {
		p.logger.Warn("failed to hide warning", "kind", kind, "err", err)
	}
}

func (p *Presenter) Visible(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[kind]
}

func (p *Presenter) Inert(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.surfaces[kind]
	return !ok
}

// LastShown returns the stored timestamp for kind.
func (p *Presenter) LastShown(kind Kind) (int64, bool) {
	raw, ok := p.store.Get(kind.StorageKey())
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.logger.Warn("ignoring unreadable shown timestamp", "key", kind.StorageKey(), "value", raw)
		return 0, false
	}
	return ts, true
}

func (p *Presenter) Snapshot() Snapshot {
	snap := Snapshot{
		Visible:   make(map[Kind]bool, len(Kinds)),
		LastShown: make(map[Kind]int64, len(Kinds)),
		Inert:     make(map[Kind]bool, len(Kinds)),
	}
	for _, k := range Kinds {
		snap.Visible[k] = p.Visible(k)
		snap.Inert[k] = p.Inert(k)
		if ts, ok := p.LastShown(k); ok {
			snap.LastShown[k] = ts
		}
	}
	return snap
}
