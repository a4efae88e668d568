package mock

import "github.com/mbialas/leadscout"

var _ leadscout.ContactExtractor = (*ContactExtractor)(nil)

// ContactExtractor is a mock implementation of leadscout.ContactExtractor.
type ContactExtractor struct {
	ExtractFn func(page leadscout.RawPage) (*leadscout.ContactCandidate, error)
}

func (e *ContactExtractor) Extract(page leadscout.RawPage) (*leadscout.ContactCandidate, error) {
	return e.ExtractFn(page)
}
