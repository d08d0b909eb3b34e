// Package fetch - browser.go renders pages in headless Chrome for sources that
// refuse or script-render plain HTTP responses.
package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserGetter implements Getter with a headless browser.
// Requires Chrome/Chromium to be installed on the system.
type BrowserGetter struct {
	Timeout     time.Duration
	MaxAttempts int
	RetryWait   time.Duration
	// Settle is how long to wait after body is ready for scripts to render.
	Settle    time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// NewBrowserGetter returns a BrowserGetter using the timeouts and retry budget of opts.
func NewBrowserGetter(opts *Options, logger *slog.Logger) *BrowserGetter {
	o := opts.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BrowserGetter{
		Timeout:     o.Timeout,
		MaxAttempts: o.MaxAttempts,
		RetryWait:   o.RetryWait,
		Settle:      2 * time.Second,
		UserAgent:   o.UserAgent,
		Logger:      logger,
	}
}

// Get renders urlStr and returns the outer HTML. Headers are not forwarded.
func (b *BrowserGetter) Get(ctx context.Context, urlStr string, _ map[string]string) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	var lastErr error
	wait := b.RetryWait
	attempts := max(b.MaxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		html, err := b.render(ctx, urlStr)
		if err == nil {
			return &Result{
				URL:         urlStr,
				Body:        []byte(html),
				ContentType: "text/html",
				StatusCode:  200,
				Attempts:    attempt,
			}, nil
		}
		lastErr = err
		b.Logger.Debug("browser render failed", "url", urlStr, "attempt", attempt, "error", err)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, &Error{URL: urlStr, Kind: KindTimeout, Attempts: attempt, Message: "context done", Cause: ctx.Err()}
		case <-time.After(wait):
		}
		wait *= 2
	}

	return nil, &Error{
		URL:      urlStr,
		Kind:     transportKind(lastErr),
		Attempts: attempts,
		Message:  "browser rendering failed",
		Cause:    lastErr,
	}
}

func (b *BrowserGetter) render(ctx context.Context, urlStr string) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(b.UserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Per-attempt timeout
	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
