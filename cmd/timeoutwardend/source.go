package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/SoarinFerret/TimeoutWarden/internal/action"
	"github.com/SoarinFerret/TimeoutWarden/internal/browser"
	"github.com/SoarinFerret/TimeoutWarden/internal/config"
	"github.com/SoarinFerret/TimeoutWarden/internal/handler"
	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
)

const httpTimeout = 30 * time.Second

// source is where the session lives: the cookie to read, how to submit the
// extend form with the session attached, and how to leave the page.
type source struct {
	lookup    timeout.Lookup
	extender  handler.Extender
	navigator handler.Navigator
	watchPath string
	close     func()
}

func (s *source) Close() {
	if s.close != nil {
		s.close()
	}
}

func openSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (*source, error) {
	extendURL := cfg.Resolve(cfg.Endpoints.ExtendSession)
	rate := cfg.Endpoints.ExtendRate.Std()

	switch cfg.Source.Kind {
	case "file":
		lookup := timeout.FileLookup{Path: cfg.Source.Path}
		client := &http.Client{Timeout: httpTimeout}
		src := &source{
			lookup: lookup,
			extender: action.NewExtender(action.HTTPPoster{
				Client:       client,
				CookieHeader: lookup.CookieHeader,
			}, extendURL, cfg.Endpoints.CSRFToken, rate),
			navigator: action.HTTPNavigator{Client: client},
		}
		if *cfg.Source.Watch {
			src.watchPath = cfg.Source.Path
		}
		return src, nil

	case "browser":
		b, err := browser.Attach(ctx, cfg.Source.BrowserURL, cfg.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		// same-origin fetches need the tab on the application
		if err := b.Navigate(ctx, cfg.Resolve("/")); err != nil {
			logger.Warn("failed to open application in browser", "err", err)
		}
		return &source{
			lookup:    b,
			extender:  action.NewExtender(b, extendURL, cfg.Endpoints.CSRFToken, rate),
			navigator: b,
			close:     b.Close,
		}, nil

	default:
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base_url: %w", err)
		}
		client := &http.Client{Jar: jar, Timeout: httpTimeout}
		nav := action.HTTPNavigator{Client: client}

		// opening the application starts the session and sets its cookies
		if err := nav.Navigate(ctx, cfg.Resolve("/")); err != nil {
			logger.Warn("failed to open application", "url", cfg.BaseURL, "err", err)
		}
		return &source{
			lookup:    timeout.JarLookup{Jar: jar, URL: base},
			extender:  action.NewHTTPExtender(client, extendURL, cfg.Endpoints.CSRFToken, rate),
			navigator: nav,
		}, nil
	}
}
