package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
)

const callTimeout = 10 * time.Second

// Browser reads cookies from, and drives navigation in, a Chrome instance
// reachable over the DevTools protocol.
type Browser struct {
	ctx     context.Context
	cancel  context.CancelFunc
	baseURL string
	logger  *slog.Logger
}

// Attach connects to the DevTools websocket at wsURL. Cookies are read for
// baseURL.
func Attach(parent context.Context, wsURL, baseURL string, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(parent, wsURL)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	// start the tab now so a bad URL fails here rather than on first poll
	if err := chromedp.Run(ctx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to attach to browser at %s: %w", wsURL, err)
	}
	logger.Info("attached to browser", "url", wsURL)

	return &Browser{
		ctx: ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

func (b *Browser) Close() {
	b.cancel()
}

// run executes actions on the browser tab, bounded by callTimeout and
// abandoned when ctx ends.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	tCtx, tCancel := context.WithTimeout(b.ctx, callTimeout)
	defer tCancel()
	stop := context.AfterFunc(ctx, tCancel)
	defer stop()
	return chromedp.Run(tCtx, actions...)
}

// Lookup returns the value of the named cookie for the base URL.
func (b *Browser) Lookup(ctx context.Context, name string) (string, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{b.baseURL}).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("get cookies: %w", err)
	}
	return pickCookie(cookies, name)
}

func pickCookie(cookies []*network.Cookie, name string) (string, error) {
	for _, c := range cookies {
		if c != nil && c.Name == name {
			return c.Value, nil
		}
	}
	return "", timeout.ErrNoCookie
}

// Navigate points the tab at target without waiting for the load event.
func (b *Browser) Navigate(ctx context.Context, target string) error {
	return b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var res json.RawMessage
		p := map[string]any{"url": target}
		if err := chromedp.FromContext(ctx).Target.Execute(ctx, "Page.navigate", p, &res); err != nil {
			return fmt.Errorf("page.navigate: %w", err)
		}
		return nil
	}))
}

// PostForm submits form from inside the page so the browser's own session
// cookies go with it. The tab must be on the target's origin.
func (b *Browser) PostForm(ctx context.Context, target string, form url.Values) (int, error) {
	script, err := postFormScript(target, form)
	if err != nil {
		return 0, err
	}
	var status int
	err = b.run(ctx, chromedp.Evaluate(script, &status, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return 0, fmt.Errorf("post %s: %w", target, err)
	}
	return status, nil
}

func postFormScript(target string, form url.Values) (string, error) {
	t, err := json.Marshal(target)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(form.Encode())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`fetch(%s, {
  method: "POST",
  credentials: "same-origin",
  headers: {"Content-Type": "application/x-www-form-urlencoded", "HX-Request": "true"},
  body: %s
}).then((r) => r.status)`, t, body), nil
}
