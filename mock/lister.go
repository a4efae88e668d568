package mock

import (
	"context"

	"github.com/mbialas/leadscout"
)

var _ leadscout.SourceLister = (*SourceLister)(nil)

// SourceLister is a mock implementation of leadscout.SourceLister.
type SourceLister struct {
	ListFn func(ctx context.Context, searchTerm string) ([]leadscout.CandidateSource, error)
}

func (l *SourceLister) List(ctx context.Context, searchTerm string) ([]leadscout.CandidateSource, error) {
	return l.ListFn(ctx, searchTerm)
}
