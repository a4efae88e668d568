package leadscout

import "context"

// Fetcher retrieves raw page content from URLs.
// Implementations may use plain HTTP or browser automation for
// JavaScript-rendered pages.
type Fetcher interface {
	// Fetch retrieves the page content for the URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter throttles requests per domain. Politeness toward source
// sites is a fetch-side concern: the pipeline waits on the limiter before
// each fetch.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled before the wait completes.
	Wait(ctx context.Context, domain string) error
}
