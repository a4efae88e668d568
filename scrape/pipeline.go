// Package scrape sequences listing, fetching, extraction, normalization,
// and aggregation for one search. Fetches run in parallel; aggregation is
// one sequential fold over the results in original source-list order, so
// first-seen dedup stays deterministic no matter how fetches interleave.
package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mbialas/leadscout"
)

// Pipeline tuning defaults.
const (
	DefaultConcurrency   = 4
	DefaultSourceTimeout = 30 * time.Second

	// MaxSources bounds how many candidate sources one search processes.
	MaxSources = 10
)

// Pipeline runs one search end to end. Per-source failures are isolated:
// a source that cannot be fetched, parsed, or normalized is skipped and
// the batch continues. The pipeline holds no state between runs.
type Pipeline struct {
	Lister    leadscout.SourceLister
	Fetcher   leadscout.Fetcher
	Extractor leadscout.ContactExtractor

	// Limiter, when set, is waited on before each fetch.
	Limiter leadscout.DomainLimiter

	// Concurrency bounds parallel fetches. Defaults to DefaultConcurrency.
	Concurrency int

	// SourceTimeout is the ceiling for one source's fetch and extraction.
	// Exceeding it skips that source, never the batch. Defaults to
	// DefaultSourceTimeout.
	SourceTimeout time.Duration

	// RetryDelays overrides fetch retry backoff; an empty non-nil slice
	// disables retries. Defaults to DefaultRetryDelays().
	RetryDelays []time.Duration

	Logger *slog.Logger
}

// Run lists candidate sources for the search term and processes them.
// A lister failure propagates as EUNAVAILABLE rather than being masked as
// an empty success; an empty listing is a legitimate zero-result outcome.
func (p *Pipeline) Run(ctx context.Context, searchTerm string) (*leadscout.ResultSet, error) {
	term := strings.TrimSpace(searchTerm)
	if term == "" {
		return nil, leadscout.Errorf(leadscout.EINVALID, "search term required")
	}

	sources, err := p.Lister.List(ctx, term)
	if err != nil {
		return nil, leadscout.Errorf(leadscout.EUNAVAILABLE, "source listing failed: %v", err)
	}

	return p.Process(ctx, term, sources)
}

// Process fetches, extracts, and normalizes each source, then aggregates
// exactly once in source-list order. It returns a valid ResultSet even
// when every source is skipped.
func (p *Pipeline) Process(ctx context.Context, searchTerm string, sources []leadscout.CandidateSource) (*leadscout.ResultSet, error) {
	term := strings.TrimSpace(searchTerm)
	if term == "" {
		return nil, leadscout.Errorf(leadscout.EINVALID, "search term required")
	}

	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := p.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}

	// Each worker writes only its own slot; the slice preserves
	// source-list order for the aggregation fold.
	records := make([]*leadscout.ContactRecord, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			rec, err := p.processSource(gctx, src, timeout)
			if err != nil {
				logger.Warn("source skipped", "url", src.URL, "reason", err)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; skips are absorbed above
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := leadscout.Aggregate(term, records)
	logger.Debug("search complete", "term", term, "sources", len(sources), "results", set.Count)
	return set, nil
}

func (p *Pipeline) processSource(ctx context.Context, src leadscout.CandidateSource, timeout time.Duration) (*leadscout.ContactRecord, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, domainOf(src.URL)); err != nil {
			return nil, err
		}
	}

	delays := p.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetry(ctx, src.URL, p.Fetcher.Fetch, p.Logger, delays)
	if err != nil {
		return nil, err
	}

	cand, err := p.Extractor.Extract(leadscout.RawPage{URL: src.URL, HTML: html})
	if err != nil {
		return nil, err
	}

	return leadscout.NormalizeRecord(cand)
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.ToLower(u.Hostname())
}
