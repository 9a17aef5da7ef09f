package session

import "time"

// Open reports whether the segment is still collecting activity.
func (s *SegmentRecord) Open() bool {
	return s.EndTime.IsZero()
}

// Length is how long the segment ran, or has run so far at now while open.
func (s *SegmentRecord) Length(now time.Time) time.Duration {
	end := s.EndTime
	if s.Open() {
		end = now
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime).Truncate(time.Second)
}

// Idle is how long the session has gone without activity at now: the length
// of the open segment. Ended sessions report zero.
func (s *SessionRecord) Idle(now time.Time) time.Duration {
	if !s.IsActive() || len(s.Segments) == 0 {
		return 0
	}
	return s.Segments[len(s.Segments)-1].Length(now)
}
