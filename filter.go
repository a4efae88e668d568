package leadscout

import "strings"

// aggregatorNames are search, social, and directory brands that are never
// a business's own website. Matched against whole host labels so country
// variants (google.co.in, facebook.de) are covered without catching
// unrelated hosts that merely contain the text.
var aggregatorNames = map[string]bool{
	"google":      true,
	"facebook":    true,
	"instagram":   true,
	"twitter":     true,
	"linkedin":    true,
	"youtube":     true,
	"yelp":        true,
	"tripadvisor": true,
	"justdial":    true,
	"wikipedia":   true,
	"duckduckgo":  true,
	"bing":        true,
}

// AggregatorHost reports whether host belongs to a known search, social, or
// directory aggregator rather than a business's own site. Links to these
// hosts are skipped during website discovery and source listing.
func AggregatorHost(host string) bool {
	for _, label := range strings.Split(strings.ToLower(host), ".") {
		if aggregatorNames[label] {
			return true
		}
	}
	return false
}
