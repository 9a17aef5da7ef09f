package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory, keyed by a random id.
type Store struct {
	Policy Policy
	Now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*SessionRecord
}

func NewStore(p Policy) *Store {
	return &Store{
		Policy:   p,
		Now:      time.Now,
		sessions: make(map[string]*SessionRecord),
	}
}

// Create starts a new session and returns a copy of its record.
func (s *Store) Create() SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &SessionRecord{SessionId: uuid.NewString()}
	rec.Start(s.Now())
	s.sessions[rec.SessionId] = rec
	return rec.clone()
}

// Get returns the session if it exists and has neither ended nor expired.
// Expired sessions are ended on the way.
func (s *Store) Get(id string) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.liveLocked(id)
	if err != nil {
		return SessionRecord{}, err
	}
	return rec.clone(), nil
}

// Touch records activity on a live session.
func (s *Store) Touch(id, reason string) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.liveLocked(id)
	if err != nil {
		return SessionRecord{}, err
	}
	if err := rec.Touch(s.Now(), reason); err != nil {
		return SessionRecord{}, err
	}
	return rec.clone(), nil
}

// End ends the session. Unknown ids are ignored.
func (s *Store) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.sessions[id]; ok {
		rec.End(s.Now())
		delete(s.sessions, id)
	}
}

func (s *Store) liveLocked(id string) (*SessionRecord, error) {
	rec, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q not found", id)
	}
	now := s.Now()
	if rec.Expired(s.Policy, now) {
		rec.End(now)
		delete(s.sessions, id)
		return nil, fmt.Errorf("session %q expired", id)
	}
	return rec, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionRecord) clone() SessionRecord {
	c := *s
	c.Segments = append([]SegmentRecord(nil), s.Segments...)
	return c
}
