package timeout

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNoCookie  = errors.New("timeout cookie not present")
	ErrMalformed = errors.New("malformed timeout data")
)

// Schedule is one reading of the session timeout cookie. The four deadlines
// and CurrentTime are Unix seconds in server time, exactly as issued.
type Schedule struct {
	InactivityWarning int64 `json:"inactivityWarning" yaml:"inactivityWarning"`
	InactivityTimeout int64 `json:"inactivityTimeout" yaml:"inactivityTimeout"`
	TotalWarning      int64 `json:"totalWarning" yaml:"totalWarning"`
	TotalTimeout      int64 `json:"totalTimeout" yaml:"totalTimeout"`
	CurrentTime       int64 `json:"currentTime" yaml:"currentTime"`

	// Skew is client time minus server time, in seconds, at read time.
	Skew int64 `json:"-" yaml:"skew"`
}

var requiredFields = []string{
	"inactivityWarning",
	"inactivityTimeout",
	"totalWarning",
	"totalTimeout",
	"currentTime",
}

// Decode parses a cookie value: URL-escaped base64 of a JSON object whose
// five fields must all be numbers.
func Decode(value string) (Schedule, error) {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	if value == "" {
		return Schedule{}, ErrNoCookie
	}

	unescaped, err := url.PathUnescape(value)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: unescape: %v", ErrMalformed, err)
	}

	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		// atob accepts unpadded input
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(unescaped, "="))
		if err != nil {
			return Schedule{}, fmt.Errorf("%w: base64: %v", ErrMalformed, err)
		}
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Schedule{}, fmt.Errorf("%w: json: %v", ErrMalformed, err)
	}

	values := make(map[string]int64, len(requiredFields))
	for _, name := range requiredFields {
		n, ok := fields[name].(float64)
		if !ok {
			return Schedule{}, fmt.Errorf("%w: field %s missing or not a number", ErrMalformed, name)
		}
		values[name] = int64(n)
	}

	return Schedule{
		InactivityWarning: values["inactivityWarning"],
		InactivityTimeout: values["inactivityTimeout"],
		TotalWarning:      values["totalWarning"],
		TotalTimeout:      values["totalTimeout"],
		CurrentTime:       values["currentTime"],
	}, nil
}

// Encode produces the cookie value Decode accepts.
func (s Schedule) Encode() string {
	data, _ := json.Marshal(s)
	return base64.StdEncoding.EncodeToString(data)
}

// WithSkew returns a copy carrying the skew between clientNow and CurrentTime.
func (s Schedule) WithSkew(clientNow time.Time) Schedule {
	s.Skew = clientNow.Unix() - s.CurrentTime
	return s
}

// ServerNow converts a client wall-clock reading into server seconds.
func (s Schedule) ServerNow(clientNow time.Time) int64 {
	return clientNow.Unix() - s.Skew
}

// Validate checks the ordering of each warning against its timeout.
func (s Schedule) Validate() error {
	if s.InactivityWarning > s.InactivityTimeout {
		return fmt.Errorf("inactivity warning %d after inactivity timeout %d", s.InactivityWarning, s.InactivityTimeout)
	}
	if s.TotalWarning > s.TotalTimeout {
		return fmt.Errorf("total warning %d after total timeout %d", s.TotalWarning, s.TotalTimeout)
	}
	return nil
}

// Expired reports whether either timeout has passed at server time now.
func (s Schedule) Expired(now int64) bool {
	return now >= s.InactivityTimeout || now >= s.TotalTimeout
}
