package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(now *time.Time) *Store {
	s := NewStore(DefaultPolicy())
	s.Now = func() time.Time { return *now }
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(&now)

	rec := s.Create()
	if _, err := uuid.Parse(rec.SessionId); err != nil {
		t.Fatalf("session id %q is not a uuid: %v", rec.SessionId, err)
	}
	if !rec.StartTime.Equal(now) {
		t.Errorf("StartTime = %v, want %v", rec.StartTime, now)
	}

	got, err := s.Get(rec.SessionId)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.SessionId != rec.SessionId {
		t.Errorf("Get() id = %q, want %q", got.SessionId, rec.SessionId)
	}

	if _, err := s.Get("nope"); err == nil {
		t.Errorf("expected error for unknown session")
	}
}

func TestStore_TouchExtends(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(&now)
	rec := s.Create()

	now = now.Add(25 * time.Minute)
	touched, err := s.Touch(rec.SessionId, "extend")
	if err != nil {
		t.Fatalf("Touch returned error: %v", err)
	}
	if len(touched.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(touched.Segments))
	}

	// past the original idle limit but within the extended one
	now = now.Add(20 * time.Minute)
	if _, err := s.Get(rec.SessionId); err != nil {
		t.Errorf("expected extended session to be live: %v", err)
	}
}

func TestStore_ExpiredSessionsAreDropped(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(&now)
	rec := s.Create()

	now = now.Add(31 * time.Minute)
	if _, err := s.Get(rec.SessionId); err == nil {
		t.Errorf("expected expired session to be rejected")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if _, err := s.Touch(rec.SessionId, "extend"); err == nil {
		t.Errorf("expected Touch on expired session to fail")
	}
}

func TestStore_End(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(&now)
	rec := s.Create()

	s.End(rec.SessionId)
	s.End("unknown")
	if _, err := s.Get(rec.SessionId); err == nil {
		t.Errorf("expected ended session to be gone")
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := newTestStore(&now)
	rec := s.Create()
	rec.Segments[0].Reason = "tampered"

	got, _ := s.Get(rec.SessionId)
	if got.Segments[0].Reason != "login" {
		t.Errorf("store record was modified through a returned copy")
	}
}
