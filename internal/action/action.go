package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrThrottled = errors.New("extend request throttled")

// ExtendRejectedError is returned when the server answers an extend request
// with anything but 200.
type ExtendRejectedError struct {
	Status int
}

func (e *ExtendRejectedError) Error() string {
	return fmt.Sprintf("extend session rejected with status %d", e.Status)
}

// Poster submits a form and reports the response status.
type Poster interface {
	PostForm(ctx context.Context, target string, form url.Values) (int, error)
}

// HTTPPoster posts with an http.Client. CookieHeader, when set, supplies a
// Cookie header for sessions the client's jar does not hold.
type HTTPPoster struct {
	Client       *http.Client
	CookieHeader func() (string, error)
}

func (p HTTPPoster) PostForm(ctx context.Context, target string, form url.Values) (int, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// the server answers htmx requests without a page body
	req.Header.Set("HX-Request", "true")
	if p.CookieHeader != nil {
		cookie, err := p.CookieHeader()
		if err != nil {
			return 0, fmt.Errorf("failed to read cookies: %w", err)
		}
		if cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// FormExtender submits the extend-session form through a Poster.
type FormExtender struct {
	Poster    Poster
	URL       string
	CSRFToken string
	limiter   *rate.Limiter
}

// NewExtender allows at most one submit per minInterval.
func NewExtender(p Poster, url, csrfToken string, minInterval time.Duration) *FormExtender {
	e := &FormExtender{Poster: p, URL: url, CSRFToken: csrfToken}
	if minInterval > 0 {
		e.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return e
}

// NewHTTPExtender posts with client, whose cookie jar carries the session
// and receives the refreshed timeout cookie.
func NewHTTPExtender(client *http.Client, url, csrfToken string, minInterval time.Duration) *FormExtender {
	return NewExtender(HTTPPoster{Client: client}, url, csrfToken, minInterval)
}

func (e *FormExtender) Extend(ctx context.Context) error {
	if e.limiter != nil && !e.limiter.Allow() {
		return ErrThrottled
	}

	form := url.Values{}
	if e.CSRFToken != "" {
		form.Set("csrfToken", e.CSRFToken)
	}
	status, err := e.Poster.PostForm(ctx, e.URL, form)
	if err != nil {
		return fmt.Errorf("extend session request failed: %w", err)
	}
	if status != http.StatusOK {
		return &ExtendRejectedError{Status: status}
	}
	return nil
}

// HTTPNavigator "navigates" by requesting the target with the session's
// client, which is what leaving the page does to the server.
type HTTPNavigator struct {
	Client *http.Client
}

func (n HTTPNavigator) Navigate(ctx context.Context, target string) error {
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build navigation request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
