package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct{}

func (identity) Stem(w string) string { return w }

func newExecutor() *executor.Executor {
	idx := index.NewInvertedIndex(0)
	idx.AddTerm("go", 0)
	idx.AddTerm("go", 1)
	idx.AddTerm("rust", 1)
	idx.SetTotalDocs(3)
	urls := index.NewURLTable()
	urls.Set(0, "http://zero")
	urls.Set(1, "http://one")
	return executor.New(parser.New(identity{}), urls, config.SearchConfig{TopK: 10, MaxResults: 20},
		executor.WithInvertedIndex(idx),
		executor.WithBooleanIndex(idx.ToBooleanIndex()),
	)
}

type memStore struct{ data map[string][]byte }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, redis.Nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memStore) FlushByPattern(context.Context, string) (int64, error) {
	n := int64(len(m.data))
	m.data = map[string][]byte{}
	return n, nil
}

func get(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSearchRanked(t *testing.T) {
	h := New(newExecutor(), nil, nil)
	rec, body := get(t, h.Search, "/api/v1/search?q=go+rust")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, metrics.ModeRanked, body["mode"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "http://one", results[0].(map[string]any)["url"])
}

func TestSearchBooleanAlias(t *testing.T) {
	h := New(newExecutor(), nil, nil)
	_, body := get(t, h.Search, "/api/v1/search?q=go+%26+!rust&mode=bool")
	assert.Equal(t, metrics.ModeBoolean, body["mode"])
	assert.Equal(t, float64(1), body["total_hits"])
}

func TestSearchHybrid(t *testing.T) {
	h := New(newExecutor(), nil, nil)
	_, body := get(t, h.Search, "/api/v1/search?q=go&filter=!rust")
	assert.Equal(t, metrics.ModeHybrid, body["mode"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "http://zero", results[0].(map[string]any)["url"])
}

func TestSearchValidation(t *testing.T) {
	h := New(newExecutor(), nil, nil)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=go&limit=0",
		"/api/v1/search?q=go&limit=abc",
		"/api/v1/search?q=go&mode=fuzzy",
	} {
		rec, body := get(t, h.Search, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestSearchMissingIndex(t *testing.T) {
	bare := executor.New(parser.New(identity{}), nil, config.SearchConfig{})
	rec, _ := get(t, New(bare, nil, nil).Search, "/api/v1/search?q=go")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchCachesAndTracks(t *testing.T) {
	agg := analytics.NewAggregator()
	collector := analytics.NewCollector(nil, 10, analytics.WithAggregator(agg))
	qc := cache.New(&memStore{data: map[string][]byte{}}, time.Minute, nil)
	h := New(newExecutor(), qc, collector)

	get(t, h.Search, "/api/v1/search?q=go")
	// Same request once defaults are resolved.
	get(t, h.Search, "/api/v1/search?q=go&mode=ranked&limit=10")

	_, stats := get(t, h.CacheStats, "/api/v1/cache/stats")
	assert.Equal(t, float64(1), stats["hits"])
	assert.Equal(t, float64(1), stats["misses"])
	assert.Equal(t, "50.0%", stats["hit_rate"])

	s := agg.Stats()
	assert.Equal(t, int64(2), s.TotalSearches)
	assert.Equal(t, int64(1), s.CacheHits)

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keys_deleted":1`)
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	h := New(newExecutor(), nil, nil)
	_, body := get(t, h.CacheStats, "/api/v1/cache/stats")
	assert.Equal(t, "disabled", body["status"])

	rec := httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalytics(t *testing.T) {
	agg := analytics.NewAggregator()
	collector := analytics.NewCollector(nil, 1, analytics.WithAggregator(agg))
	h := New(newExecutor(), nil, collector, WithAggregator(agg))

	get(t, h.Search, "/api/v1/search?q=go")
	get(t, h.Search, "/api/v1/search?q=haskell")

	rec, body := get(t, h.Analytics, "/api/v1/analytics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total_searches"])
	assert.Equal(t, float64(1), body["zero_result_count"])
	// The unstarted collector buffers one event and drops the second.
	assert.Equal(t, float64(1), body["dropped_events"])
	byMode := body["searches_by_mode"].(map[string]any)
	assert.Equal(t, float64(2), byMode[metrics.ModeRanked])
}

func TestAnalyticsWhenDisabled(t *testing.T) {
	rec, body := get(t, New(newExecutor(), nil, nil).Analytics, "/api/v1/analytics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "analytics is disabled", body["error"])
}
