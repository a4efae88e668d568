package leadscout

// ContactExtractor recognizes contact fields in one fetched page.
type ContactExtractor interface {
	// Extract scans the page and returns a candidate populated with
	// whatever was found. A page with no recognizable fields yields a
	// candidate with only SourceURL set; that is a normal outcome, not an
	// error. Extraction fails only when the content itself is unreadable.
	Extract(page RawPage) (*ContactCandidate, error)
}
