package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mbialas/leadscout"
	lshttp "github.com/mbialas/leadscout/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searcherFunc adapts a function to the lshttp.Searcher interface.
type searcherFunc func(ctx context.Context, searchTerm string) (*leadscout.ResultSet, error)

func (f searcherFunc) Run(ctx context.Context, searchTerm string) (*leadscout.ResultSet, error) {
	return f(ctx, searchTerm)
}

func strptr(s string) *string { return &s }

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestServer_Search(t *testing.T) {
	t.Parallel()

	t.Run("returns the success envelope", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, term string) (*leadscout.ResultSet, error) {
			assert.Equal(t, "cafes in pune", term)
			return &leadscout.ResultSet{
				SearchTerm: term,
				Results: []*leadscout.ContactRecord{{
					BusinessName: strptr("Cafe Aroma"),
					Email:        strptr("hi@cafearoma.in"),
					SourceURL:    "https://cafearoma.in",
				}},
				Count:       1,
				GeneratedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			}, nil
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Post(ts.URL+"/api/search", "application/json",
			strings.NewReader(`{"search_term": "cafes in pune"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		m := decodeBody(t, resp)
		assert.Equal(t, "success", m["status"])
		assert.Equal(t, "cafes in pune", m["search_term"])
		assert.Equal(t, float64(1), m["results_count"])
		assert.Equal(t, "2025-06-01T10:00:00Z", m["timestamp"])

		data := m["data"].([]any)
		require.Len(t, data, 1)
		rec := data[0].(map[string]any)
		assert.Equal(t, "Cafe Aroma", rec["business_name"])
		assert.Equal(t, "hi@cafearoma.in", rec["email"])
		assert.Nil(t, rec["phone"], "absent fields render as explicit nulls")
		assert.Equal(t, "https://cafearoma.in", rec["source_url"])
	})

	t.Run("zero results is still a success", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, term string) (*leadscout.ResultSet, error) {
			return &leadscout.ResultSet{
				SearchTerm:  term,
				Results:     []*leadscout.ContactRecord{},
				GeneratedAt: time.Now().UTC(),
			}, nil
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Get(ts.URL + "/api/search?search_term=nothing")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		m := decodeBody(t, resp)
		assert.Equal(t, "success", m["status"])
		assert.Equal(t, float64(0), m["results_count"])
		data, ok := m["data"].([]any)
		require.True(t, ok, "data must be [], not null")
		assert.Empty(t, data)
		assert.NotEmpty(t, m["message"])
	})

	t.Run("blank search term is a 400 error envelope", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, _ string) (*leadscout.ResultSet, error) {
			t.Error("searcher must not be invoked")
			return nil, nil
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Get(ts.URL + "/api/search?search_term=%20%20")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		m := decodeBody(t, resp)
		assert.Equal(t, "error", m["status"])
		assert.NotEmpty(t, m["message"])
	})

	t.Run("malformed JSON body is a 400", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, _ string) (*leadscout.ResultSet, error) {
			return nil, nil
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Post(ts.URL+"/api/search", "application/json", strings.NewReader("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("lister failure maps to 502", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, _ string) (*leadscout.ResultSet, error) {
			return nil, leadscout.Errorf(leadscout.EUNAVAILABLE, "source listing failed: connection refused")
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Get(ts.URL + "/api/search?search_term=cafes")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		m := decodeBody(t, resp)
		assert.Equal(t, "error", m["status"])
		assert.Contains(t, m["message"], "source listing failed")
	})

	t.Run("internal errors never leak details", func(t *testing.T) {
		t.Parallel()

		searcher := searcherFunc(func(_ context.Context, _ string) (*leadscout.ResultSet, error) {
			return nil, fmt.Errorf("pipeline wiring bug: nil extractor")
		})
		ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
		defer ts.Close()

		resp, err := ts.Client().Get(ts.URL + "/api/search?search_term=cafes")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		m := decodeBody(t, resp)
		assert.Equal(t, "Internal error.", m["message"])
	})
}

func TestServer_Status(t *testing.T) {
	t.Parallel()

	searcher := searcherFunc(func(_ context.Context, _ string) (*leadscout.ResultSet, error) {
		return nil, nil
	})
	ts := httptest.NewServer(lshttp.NewServer(searcher, nil).Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	m := decodeBody(t, resp)
	assert.Equal(t, "online", m["status"])
}
