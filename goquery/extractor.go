// Package goquery provides a goquery-based implementation of
// leadscout.ContactExtractor. Structural hints (headings, anchors) come
// from CSS selection; emails and phones are recognized by pattern scanning
// with a first-occurrence-wins policy.
package goquery

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/mbialas/leadscout"
)

// Ensure Extractor implements leadscout.ContactExtractor at compile time.
var _ leadscout.ContactExtractor = (*Extractor)(nil)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\(?\d[\d\-.() ]{4,18}\d`)
)

// nameSelectors are tried in order; the first non-empty match becomes the
// candidate business name. A name is never fabricated from other fields.
var nameSelectors = []string{"h1", "[itemprop=name]", "title"}

// assetExts are file extensions that follow an @ in responsive asset names
// (logo@2x.png) and match the email pattern without being addresses.
var assetExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"webp": true, "svg": true, "css": true, "js": true,
}

// Extractor extracts contact fields from one page of raw HTML.
// The zero value is usable; Extract is a pure function of its input.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract scans the page for a business name, email, phone, and website.
// Absent fields are a normal outcome; the only failure mode is content
// that cannot be read as UTF-8 text.
//
// Emails are scanned in the raw markup so mailto: hrefs participate in
// document order; phones are scanned in the rendered text because markup
// is saturated with incidental digit runs.
func (e *Extractor) Extract(page leadscout.RawPage) (*leadscout.ContactCandidate, error) {
	if !utf8.ValidString(page.HTML) {
		return nil, leadscout.Errorf(leadscout.EINVALID, "content for %s is not valid UTF-8", page.URL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, leadscout.Errorf(leadscout.EINVALID, "cannot parse content for %s: %v", page.URL, err)
	}

	cand := &leadscout.ContactCandidate{SourceURL: page.URL}
	if name := extractName(doc); name != "" {
		cand.BusinessName = &name
	}
	if email := firstEmail(page.HTML); email != "" {
		cand.Email = &email
	}
	if phone := firstPhone(doc); phone != "" {
		cand.Phone = &phone
	}
	// The registrable-domain fallback applies only when the page showed
	// some other contact signal; otherwise a blank page would still yield
	// a website-only record instead of being dropped as valueless.
	hasSignal := cand.BusinessName != nil || cand.Email != nil || cand.Phone != nil
	if site := extractWebsite(doc, page.URL, hasSignal); site != "" {
		cand.Website = &site
	}
	return cand, nil
}

func extractName(doc *goquery.Document) string {
	for _, sel := range nameSelectors {
		if name := strings.TrimSpace(doc.Find(sel).First().Text()); name != "" {
			return name
		}
	}
	return ""
}

// firstEmail returns the first email-shaped substring of the markup in
// document order, skipping responsive asset names.
func firstEmail(html string) string {
	for _, m := range emailRe.FindAllString(html, -1) {
		ext := m[strings.LastIndexByte(m, '.')+1:]
		if assetExts[strings.ToLower(ext)] {
			continue
		}
		return m
	}
	return ""
}

// firstPhone prefers tel: links, then falls back to scanning the rendered
// text for the first loose numeric match with 7-15 digits.
func firstPhone(doc *goquery.Document) string {
	var fromLink string
	doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if n := strings.TrimPrefix(href, "tel:"); plausibleDigits(n) {
			fromLink = n
			return false
		}
		return true
	})
	if fromLink != "" {
		return fromLink
	}

	for _, m := range phoneRe.FindAllString(doc.Text(), -1) {
		if plausibleDigits(m) {
			return m
		}
	}
	return ""
}

func plausibleDigits(s string) bool {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n >= 7 && n <= 15
}

// extractWebsite returns the first external http(s) link that is not an
// aggregator and not the page's own host. When no such link exists and
// fallback is allowed, the source URL's registrable domain stands in,
// unless the source itself is an aggregator (a maps listing is not the
// business's website).
func extractWebsite(doc *goquery.Document, sourceURL string, fallback bool) string {
	var srcHost, srcScheme string
	if src, err := url.Parse(sourceURL); err == nil {
		srcHost = strings.ToLower(src.Hostname())
		srcScheme = src.Scheme
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return true
		}
		host := strings.ToLower(u.Hostname())
		if host == srcHost || leadscout.AggregatorHost(host) {
			return true
		}
		found = href
		return false
	})
	if found != "" {
		return found
	}

	if !fallback || srcHost == "" || leadscout.AggregatorHost(srcHost) {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(srcHost)
	if err != nil {
		return ""
	}
	if srcScheme != "http" && srcScheme != "https" {
		srcScheme = "https"
	}
	return srcScheme + "://" + domain
}
