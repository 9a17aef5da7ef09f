package timeout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// Lookup fetches the raw value of a named cookie. It returns ErrNoCookie
// when the cookie is absent.
type Lookup interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, name string) (string, error)

func (f LookupFunc) Lookup(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// JarLookup reads cookies an http.Client stored for URL.
type JarLookup struct {
	Jar http.CookieJar
	URL *url.URL
}

func (j JarLookup) Lookup(_ context.Context, name string) (string, error) {
	for _, c := range j.Jar.Cookies(j.URL) {
		if c.Name == name {
			return c.Value, nil
		}
	}
	return "", ErrNoCookie
}

// FileLookup reads a file holding either the bare cookie value or a
// "name=value; other=value" cookie header line.
type FileLookup struct {
	Path string
}

func (f FileLookup) Lookup(_ context.Context, name string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoCookie
		}
		return "", err
	}
	return cookieFromText(string(data), name)
}

// CookieHeader returns the file's cookie header line, or "" when the file
// holds a bare value.
func (f FileLookup) CookieHeader() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "Cookie:"))
	if strings.Contains(text, ";") {
		return text, nil
	}
	// a bare base64 value only has '=' as trailing padding
	if _, rest, ok := strings.Cut(text, "="); ok && strings.Trim(rest, "=") != "" {
		return text, nil
	}
	return "", nil
}

func cookieFromText(text, name string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "Cookie:")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoCookie
	}
	if !strings.Contains(text, ";") && !strings.HasPrefix(text, name+"=") {
		// bare value; '=' here is base64 padding
		return text, nil
	}
	for _, part := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && key == name {
			if value == "" {
				return "", ErrNoCookie
			}
			return value, nil
		}
	}
	return "", ErrNoCookie
}

// Reader turns cookie lookups into schedules. Failures are logged and
// reported as a nil schedule.
type Reader struct {
	Lookup     Lookup
	CookieName string
	// SkewCorrection shifts the schedule by the client/server clock
	// difference, measured when a cookie value is first seen.
	SkewCorrection bool
	Now            func() time.Time
	Logger         *slog.Logger

	mu        sync.Mutex
	seenValue string
	seenSkew  int64
}

func (r *Reader) Read(ctx context.Context) *Schedule {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	value, err := r.Lookup.Lookup(ctx, r.CookieName)
	if err != nil {
		if errors.Is(err, ErrNoCookie) {
			logger.Debug("no session timeout cookie", "cookie", r.CookieName)
		} else {
			logger.Warn("session timeout cookie lookup failed", "cookie", r.CookieName, "err", err)
		}
		return nil
	}

	s, err := Decode(value)
	if err != nil {
		logger.Error("invalid session timeout data", "cookie", r.CookieName, "err", err)
		return nil
	}
	if err := s.Validate(); err != nil {
		logger.Warn("session timeout schedule out of order", "err", err)
	}

	if r.SkewCorrection {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		s.Skew = r.skewFor(value, s, now())
	}
	return &s
}

// skewFor returns the skew taken when value was first read. Re-measuring on
// every read would pin server time to CurrentTime for a cookie that is not
// re-issued.
func (r *Reader) skewFor(value string, s Schedule, clientNow time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if value != r.seenValue {
		r.seenValue = value
		r.seenSkew = s.WithSkew(clientNow).Skew
	}
	return r.seenSkew
}
