package state

import (
	"time"
)

// State is the top-level structure stored in the state file.
type State struct {
	Values    map[string]string `json:"values"`
	Version   int               `json:"version"`
	HeartBeat time.Time         `json:"-"` // file mtime
}

func newState() *State {
	return &State{
		Values:    make(map[string]string),
		HeartBeat: time.Now(),
		Version:   1,
	}
}

func (s *State) Get(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s *State) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}
