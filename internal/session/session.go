package session

import (
	"fmt"
	"time"

	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
)

func (s *SessionRecord) Start(start time.Time) {
	if start.IsZero() {
		start = time.Now()
	}
	s.StartTime = start
	s.Segments = []SegmentRecord{{StartTime: start, Reason: "login"}}
}

func (s *SessionRecord) End(end time.Time) {
	if end.IsZero() {
		end = time.Now()
	}
	s.EndTime = end
	if len(s.Segments) > 0 {
		last := len(s.Segments) - 1
		if s.Segments[last].EndTime.IsZero() {
			s.Segments[last].EndTime = end
		}
	}
}

func (s *SessionRecord) IsActive() bool {
	return s.EndTime.IsZero()
}

// Touch records activity at t, closing the current segment and opening a
// new one.
func (s *SessionRecord) Touch(t time.Time, reason string) error {
	if !s.IsActive() {
		return fmt.Errorf("session %s has ended", s.SessionId)
	}
	if t.IsZero() {
		t = time.Now()
	}
	if len(s.Segments) > 0 {
		s.Segments[len(s.Segments)-1].EndTime = t
	}
	s.Segments = append(s.Segments, SegmentRecord{StartTime: t, Reason: reason})
	return nil
}

// LastActivity is when the open segment started.
func (s *SessionRecord) LastActivity() time.Time {
	if len(s.Segments) == 0 {
		return s.StartTime
	}
	return s.Segments[len(s.Segments)-1].StartTime
}

// Schedule computes the timeout cookie contents at now.
func (s *SessionRecord) Schedule(p Policy, now time.Time) timeout.Schedule {
	idleDeadline := s.LastActivity().Add(p.InactivityTimeout)
	totalDeadline := s.StartTime.Add(p.MaxLength)
	return timeout.Schedule{
		InactivityWarning: idleDeadline.Add(-p.InactivityWarning).Unix(),
		InactivityTimeout: idleDeadline.Unix(),
		TotalWarning:      totalDeadline.Add(-p.TotalWarning).Unix(),
		TotalTimeout:      totalDeadline.Unix(),
		CurrentTime:       now.Unix(),
	}
}

// Expired reports whether either limit has passed at now.
func (s *SessionRecord) Expired(p Policy, now time.Time) bool {
	return s.Schedule(p, now).Expired(now.Unix())
}
