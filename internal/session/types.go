package session

import (
	"time"
)

// Policy holds the server-side session limits. Warning leads are how long
// before the matching timeout the warning fires.
type Policy struct {
	InactivityTimeout time.Duration
	MaxLength         time.Duration
	InactivityWarning time.Duration
	TotalWarning      time.Duration
}

// DefaultPolicy is 30 minutes idle, 10 hours total, warnings 5 minutes ahead.
func DefaultPolicy() Policy {
	return Policy{
		InactivityTimeout: 30 * time.Minute,
		MaxLength:         10 * time.Hour,
		InactivityWarning: 5 * time.Minute,
		TotalWarning:      5 * time.Minute,
	}
}

// SegmentRecord is one stretch of activity, from a login or extension to
// the next one.
type SegmentRecord struct {
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"stop"`
	Reason    string    `json:"reason,omitempty"`
}

// SessionRecord tracks one login.
type SessionRecord struct {
	SessionId string          `json:"session_id,omitempty"`
	StartTime time.Time       `json:"start"`
	EndTime   time.Time       `json:"end"`
	Segments  []SegmentRecord `json:"segments,omitempty"`
}
