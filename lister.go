package leadscout

import "context"

// SourceLister discovers candidate source URLs for a search term.
// Implementations hide where listings come from (a search results page,
// a map listing driven by a browser). A lister failure is a pipeline-level
// error, distinct from individual sources failing later.
type SourceLister interface {
	List(ctx context.Context, searchTerm string) ([]CandidateSource, error)
}
