package rod

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mbialas/leadscout"
)

// Maps listing defaults.
const (
	DefaultSearchBaseURL = "https://www.google.com/maps/search/"
	defaultScrolls       = 3
	defaultMaxResults    = 10
	scrollPause          = time.Second
)

// scrollFeedJS scrolls the results feed to its bottom so more results load.
const scrollFeedJS = `() => {
	const feed = document.querySelector('div[role="feed"]');
	if (feed) feed.scrollTop = feed.scrollHeight;
}`

// Ensure Lister implements leadscout.SourceLister at compile time.
var _ leadscout.SourceLister = (*Lister)(nil)

// Lister discovers business result links by driving a headless browser
// through a maps-style search listing: navigate to the search URL, scroll
// the results feed to load more entries, then collect place links from the
// rendered HTML in document order.
type Lister struct {
	browser *rod.Browser
	baseURL string
	scrolls int
	max     int
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithSearchBaseURL overrides the listing endpoint. The search term is
// appended path-escaped.
func WithSearchBaseURL(base string) ListerOption {
	return func(l *Lister) {
		l.baseURL = base
	}
}

// WithScrolls sets how many times the results feed is scrolled.
func WithScrolls(n int) ListerOption {
	return func(l *Lister) {
		l.scrolls = n
	}
}

// NewLister creates a Lister that launches a headless Chrome browser.
// Close must be called when the Lister is no longer needed.
func NewLister(opts ...ListerOption) (*Lister, error) {
	browser, err := launchBrowser()
	if err != nil {
		return nil, err
	}

	l := &Lister{
		browser: browser,
		baseURL: DefaultSearchBaseURL,
		scrolls: defaultScrolls,
		max:     defaultMaxResults,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// List renders the listing for the search term and returns place links in
// first-seen order, capped at ten.
func (l *Lister) List(ctx context.Context, searchTerm string) ([]leadscout.CandidateSource, error) {
	page, err := l.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(l.baseURL + url.PathEscape(searchTerm)); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	for i := 0; i < l.scrolls; i++ {
		if _, err := page.Eval(scrollFeedJS); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(scrollPause):
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}

	return placeLinks(html, searchTerm, l.max)
}

// Close releases browser resources.
func (l *Lister) Close() error {
	return l.browser.Close()
}

// placeLinks extracts /maps/place/ links from the rendered listing in
// document order, first-seen deduplicated and capped. Relative links are
// resolved against the maps host.
func placeLinks(html, searchTerm string, max int) ([]leadscout.CandidateSource, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, leadscout.Errorf(leadscout.EINVALID, "cannot parse listing: %v", err)
	}

	seen := make(map[string]bool)
	var sources []leadscout.CandidateSource
	doc.Find(`a[href*="/maps/place/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = "https://www.google.com" + href
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		sources = append(sources, leadscout.CandidateSource{URL: href, SearchTerm: searchTerm})
		return len(sources) < max
	})

	return sources, nil
}
