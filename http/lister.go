package http

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mbialas/leadscout"
)

// DefaultMaxResults caps how many candidate sources one listing yields.
const DefaultMaxResults = 10

// Ensure Lister implements leadscout.SourceLister at compile time.
var _ leadscout.SourceLister = (*Lister)(nil)

// Lister discovers candidate sources by scraping result links out of an
// HTML listing endpoint. The search term is appended to the endpoint as a
// URL-escaped query, e.g. "https://html.duckduckgo.com/html/?q=".
type Lister struct {
	fetcher  leadscout.Fetcher
	endpoint string
	max      int
}

// NewLister creates a Lister against the given endpoint.
func NewLister(fetcher leadscout.Fetcher, endpoint string) *Lister {
	return &Lister{
		fetcher:  fetcher,
		endpoint: endpoint,
		max:      DefaultMaxResults,
	}
}

// List fetches the listing page for the search term and returns the result
// links in document order, first-seen deduplicated and capped. Aggregator
// hosts (the search engine itself, social sites) are skipped.
func (l *Lister) List(ctx context.Context, searchTerm string) ([]leadscout.CandidateSource, error) {
	html, err := l.fetcher.Fetch(ctx, l.endpoint+url.QueryEscape(searchTerm))
	if err != nil {
		return nil, leadscout.Errorf(leadscout.EUNAVAILABLE, "listing fetch failed: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, leadscout.Errorf(leadscout.EINVALID, "cannot parse listing: %v", err)
	}

	seen := make(map[string]bool)
	var sources []leadscout.CandidateSource
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return true
		}
		if leadscout.AggregatorHost(u.Hostname()) {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		sources = append(sources, leadscout.CandidateSource{URL: href, SearchTerm: searchTerm})
		return len(sources) < l.max
	})

	return sources, nil
}
