package scrape_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mbialas/leadscout"
	lsgoquery "github.com/mbialas/leadscout/goquery"
	"github.com/mbialas/leadscout/mock"
	"github.com/mbialas/leadscout/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(urls ...string) []leadscout.CandidateSource {
	out := make([]leadscout.CandidateSource, 0, len(urls))
	for _, u := range urls {
		out = append(out, leadscout.CandidateSource{URL: u, SearchTerm: "test"})
	}
	return out
}

// pageFetcher serves canned HTML by URL; unknown URLs fail.
func pageFetcher(pages map[string]string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			html, ok := pages[url]
			if !ok {
				return "", fmt.Errorf("connection refused: %s", url)
			}
			return html, nil
		},
	}
}

func TestPipeline_Process(t *testing.T) {
	t.Parallel()

	t.Run("cross-page dedup with enrichment", func(t *testing.T) {
		t.Parallel()

		// Page A has an email and phone; page B repeats the email with
		// different case. One record survives, enriched and positioned
		// at A's index.
		p := &scrape.Pipeline{
			Fetcher: pageFetcher(map[string]string{
				"https://a.example.com": `<html><body><h1>ABC</h1><p>Contact@ABC.com</p><p>987-654-3210</p></body></html>`,
				"https://b.example.com": `<html><body><p>contact@abc.com</p></body></html>`,
			}),
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		set, err := p.Process(context.Background(), "restaurants in coimbatore", sources("https://a.example.com", "https://b.example.com"))
		require.NoError(t, err)

		require.Equal(t, 1, set.Count)
		rec := set.Results[0]
		require.NotNil(t, rec.Email)
		assert.Equal(t, "contact@abc.com", *rec.Email)
		require.NotNil(t, rec.Phone)
		assert.Equal(t, "9876543210", *rec.Phone)
		assert.Equal(t, "https://a.example.com", rec.SourceURL)
		assert.Equal(t, "restaurants in coimbatore", set.SearchTerm)
	})

	t.Run("one failing source does not abort the batch", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{}
		urls := make([]string, 5)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://biz%d.example.com", i+1)
			if i != 2 { // source 3 stays unknown and fails to fetch
				pages[urls[i]] = fmt.Sprintf(`<html><body><p>owner%d@biz%d.com</p></body></html>`, i+1, i+1)
			}
		}

		p := &scrape.Pipeline{
			Fetcher:     pageFetcher(pages),
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		set, err := p.Process(context.Background(), "plumbers", sources(urls...))
		require.NoError(t, err)

		require.Equal(t, 4, set.Count)
		for _, rec := range set.Results {
			assert.NotEqual(t, "https://biz3.example.com", rec.SourceURL)
		}
	})

	t.Run("results keep source-list order under concurrency", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{}
		delays := map[string]time.Duration{}
		urls := make([]string, 8)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://biz%d.example.com", i)
			pages[urls[i]] = fmt.Sprintf(`<html><body><p>owner%d@biz%d.com</p></body></html>`, i, i)
			// Earlier sources finish last so completion order inverts
			// source order.
			delays[urls[i]] = time.Duration(len(urls)-i) * 5 * time.Millisecond
		}
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				time.Sleep(delays[url])
				return pages[url], nil
			},
		}

		p := &scrape.Pipeline{
			Fetcher:     fetcher,
			Extractor:   lsgoquery.NewExtractor(),
			Concurrency: 8,
			RetryDelays: []time.Duration{},
		}

		set, err := p.Process(context.Background(), "florists", sources(urls...))
		require.NoError(t, err)

		require.Equal(t, len(urls), set.Count)
		for i, rec := range set.Results {
			assert.Equal(t, urls[i], rec.SourceURL)
		}
	})

	t.Run("no-value pages are skipped silently", func(t *testing.T) {
		t.Parallel()

		p := &scrape.Pipeline{
			Fetcher: pageFetcher(map[string]string{
				"https://empty.example.com": `<html><body><p>   </p></body></html>`,
				"https://real.example.com":  `<html><body><p>hi@real.com</p></body></html>`,
			}),
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		set, err := p.Process(context.Background(), "bakers", sources("https://empty.example.com", "https://real.example.com"))
		require.NoError(t, err)

		require.Equal(t, 1, set.Count)
		assert.Equal(t, "https://real.example.com", set.Results[0].SourceURL)
	})

	t.Run("all-skip batch is an empty success", func(t *testing.T) {
		t.Parallel()

		p := &scrape.Pipeline{
			Fetcher:     pageFetcher(nil),
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		set, err := p.Process(context.Background(), "ghosts", sources("https://gone.example.com"))
		require.NoError(t, err)

		assert.Zero(t, set.Count)
		assert.NotNil(t, set.Results)
	})

	t.Run("sources beyond the cap are not fetched", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				fetches.Add(1)
				return `<html><body><p>a@b.com</p></body></html>`, nil
			},
		}

		urls := make([]string, scrape.MaxSources+5)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://biz%d.example.com", i)
		}

		p := &scrape.Pipeline{
			Fetcher:     fetcher,
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		_, err := p.Process(context.Background(), "many", sources(urls...))
		require.NoError(t, err)
		assert.Equal(t, int32(scrape.MaxSources), fetches.Load())
	})

	t.Run("hung source is skipped at the timeout", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				if url == "https://hung.example.com" {
					<-ctx.Done()
					return "", ctx.Err()
				}
				return `<html><body><p>ok@fast.com</p></body></html>`, nil
			},
		}

		p := &scrape.Pipeline{
			Fetcher:       fetcher,
			Extractor:     lsgoquery.NewExtractor(),
			SourceTimeout: 20 * time.Millisecond,
			RetryDelays:   []time.Duration{},
		}

		set, err := p.Process(context.Background(), "slowpokes", sources("https://hung.example.com", "https://fast.example.com"))
		require.NoError(t, err)

		require.Equal(t, 1, set.Count)
		assert.Equal(t, "https://fast.example.com", set.Results[0].SourceURL)
	})

	t.Run("blank search term is rejected", func(t *testing.T) {
		t.Parallel()

		p := &scrape.Pipeline{Fetcher: pageFetcher(nil), Extractor: lsgoquery.NewExtractor()}

		_, err := p.Process(context.Background(), "   ", nil)
		require.Error(t, err)
		assert.Equal(t, leadscout.EINVALID, leadscout.ErrorCode(err))
	})
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists then processes", func(t *testing.T) {
		t.Parallel()

		lister := &mock.SourceLister{
			ListFn: func(_ context.Context, term string) ([]leadscout.CandidateSource, error) {
				assert.Equal(t, "cafes", term)
				return sources("https://cafe.example.com"), nil
			},
		}
		p := &scrape.Pipeline{
			Lister: lister,
			Fetcher: pageFetcher(map[string]string{
				"https://cafe.example.com": `<html><body><h1>Cafe</h1><p>hi@cafe.com</p></body></html>`,
			}),
			Extractor:   lsgoquery.NewExtractor(),
			RetryDelays: []time.Duration{},
		}

		set, err := p.Run(context.Background(), "cafes")
		require.NoError(t, err)
		assert.Equal(t, 1, set.Count)
	})

	t.Run("lister failure is never an empty success", func(t *testing.T) {
		t.Parallel()

		lister := &mock.SourceLister{
			ListFn: func(_ context.Context, _ string) ([]leadscout.CandidateSource, error) {
				return nil, fmt.Errorf("listing service unreachable")
			},
		}
		p := &scrape.Pipeline{Lister: lister, Fetcher: pageFetcher(nil), Extractor: lsgoquery.NewExtractor()}

		_, err := p.Run(context.Background(), "cafes")
		require.Error(t, err)
		assert.Equal(t, leadscout.EUNAVAILABLE, leadscout.ErrorCode(err))
	})

	t.Run("empty listing is a zero-result success", func(t *testing.T) {
		t.Parallel()

		lister := &mock.SourceLister{
			ListFn: func(_ context.Context, _ string) ([]leadscout.CandidateSource, error) {
				return nil, nil
			},
		}
		p := &scrape.Pipeline{Lister: lister, Fetcher: pageFetcher(nil), Extractor: lsgoquery.NewExtractor()}

		set, err := p.Run(context.Background(), "nowhere")
		require.NoError(t, err)
		assert.Zero(t, set.Count)
	})

	t.Run("blank search term is rejected before listing", func(t *testing.T) {
		t.Parallel()

		lister := &mock.SourceLister{
			ListFn: func(_ context.Context, _ string) ([]leadscout.CandidateSource, error) {
				t.Fatal("lister must not be called")
				return nil, nil
			},
		}
		p := &scrape.Pipeline{Lister: lister, Fetcher: pageFetcher(nil), Extractor: lsgoquery.NewExtractor()}

		_, err := p.Run(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, leadscout.EINVALID, leadscout.ErrorCode(err))
	})
}

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		fetch := func(_ context.Context, _ string) (string, error) {
			if attempts.Add(1) < 3 {
				return "", fmt.Errorf("transient")
			}
			return "ok", nil
		}

		html, err := scrape.FetchWithRetry(context.Background(), "https://x.example.com", fetch, nil,
			[]time.Duration{time.Millisecond, time.Millisecond})
		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("returns last error when all attempts fail", func(t *testing.T) {
		t.Parallel()

		fetch := func(_ context.Context, _ string) (string, error) {
			return "", fmt.Errorf("down")
		}

		_, err := scrape.FetchWithRetry(context.Background(), "https://x.example.com", fetch, nil,
			[]time.Duration{time.Millisecond})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "down")
	})

	t.Run("empty delays means a single attempt", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		fetch := func(_ context.Context, _ string) (string, error) {
			attempts.Add(1)
			return "", fmt.Errorf("down")
		}

		_, err := scrape.FetchWithRetry(context.Background(), "https://x.example.com", fetch, nil, nil)
		require.Error(t, err)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("stops when context is canceled between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(_ context.Context, _ string) (string, error) {
			cancel()
			return "", fmt.Errorf("down")
		}

		_, err := scrape.FetchWithRetry(ctx, "https://x.example.com", fetch, nil,
			[]time.Duration{time.Minute})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
