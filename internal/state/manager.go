package state

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Manager is session-scoped key/value storage backed by a JSON file. With
// an empty path it keeps everything in memory.
type Manager struct {
	path       string
	staleAfter time.Duration
	mu         sync.Mutex
	state      *State
}

// NewManager loads or initializes a state file. Values whose last heartbeat
// is older than staleAfter belong to a session that cannot still be alive
// and are dropped.
func NewManager(path string, staleAfter time.Duration) (*Manager, error) {
	m := &Manager{path: path, staleAfter: staleAfter}
	if path == "" {
		m.state = newState()
		return m, nil
	}
	if err := m.load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.state = newState()
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				return nil, err
			}
			if err := m.save(); err != nil {
				return nil, err
			}
			return m, nil
		}
		return nil, err
	}
	m.startUpChecks(time.Now())
	return m, nil
}

// load reads the state file into memory.
func (m *Manager) load() error {
	var s State
	// mtime is the heartbeat
	info, err := os.Stat(m.path)
	if err != nil {
		return err
	}
	s.HeartBeat = info.ModTime()
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	m.state = &s
	return nil
}

// save atomically writes the state file to disk.
func (m *Manager) save() error {
	if m.path == "" {
		return nil
	}
	tmp := m.path + ".tmp"
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manager) startUpChecks(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staleAfter > 0 && now.Sub(m.state.HeartBeat) > m.staleAfter && len(m.state.Values) > 0 {
		slog.Info("dropping stale session storage", "path", m.path, "last_heartbeat", m.state.HeartBeat)
		m.state.Values = make(map[string]string)
		if err := m.save(); err != nil {
			slog.Warn("failed to save state", "path", m.path, "err", err)
		}
	}
	m.state.HeartBeat = now
}

func (m *Manager) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Get(key)
}

func (m *Manager) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Set(key, value)
	return m.save()
}

// Clear drops every value. Called when the session ends.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Values = make(map[string]string)
	return m.save()
}

// Values returns a copy of the stored values.
func (m *Manager) Values() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.state.Values)
}

func (m *Manager) Heartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := time.Now()
	if m.path != "" {
		os.Chtimes(m.path, t, t)
	}
	m.state.HeartBeat = t
}

func (m *Manager) LastHeartbeat() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.HeartBeat
}
