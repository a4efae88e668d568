// Package rod provides browser-backed implementations of leadscout.Fetcher
// and leadscout.SourceLister using Chrome automation, for listings and
// business pages that only render with JavaScript.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mbialas/leadscout"
)

// Ensure Fetcher implements leadscout.Fetcher at compile time.
var _ leadscout.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser     *rod.Browser
	renderDelay time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRenderDelay waits the given duration after page load before reading
// HTML. Script-heavy pages populate contact blocks asynchronously.
func WithRenderDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.renderDelay = d
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	browser, err := launchBrowser()
	if err != nil {
		return nil, err
	}

	f := &Fetcher{browser: browser}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.renderDelay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.renderDelay):
		}
	}

	return page.HTML()
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.browser.Close()
}

// launchBrowser starts a headless Chrome and connects to it.
func launchBrowser() (*rod.Browser, error) {
	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill() // clean up launched process on connection failure
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, nil
}
