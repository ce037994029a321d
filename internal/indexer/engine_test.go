package indexer

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/stemmer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identity struct{}

func (identity) Stem(w string) string { return w }

func testConfig(t *testing.T) config.IndexConfig {
	return config.IndexConfig{
		DataDir:          t.TempDir(),
		IndexFile:        "index.bin",
		BooleanIndexFile: "boolean_index.bin",
		URLFile:          "urls.bin",
		StatsFile:        "zipf_data.csv",
		ProgressEvery:    1,
	}
}

func corpus() source.Slice {
	return source.Pages(
		[2]string{"http://a", "<p>cat dog</p>"},
		[2]string{"http://b", ""},
		[2]string{"http://c", "<b>cat</b><i>cat</i>"},
		[2]string{"http://d", "<script>x()</script>!!!"},
	)
}

func opener(src ingestion.Source) SourceOpener {
	return func(context.Context) (ingestion.Source, error) { return src, nil }
}

func TestTerms(t *testing.T) {
	st := stemmer.New()
	e := NewEngine(testConfig(t), st)
	assert.Equal(t, []string{st.Stem("кошки"), "run", "42"}, e.Terms("<p>Кошки</p><p>running 42</p>"))
	assert.Empty(t, e.Terms(""))
}

func TestBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewEngine(testConfig(t), identity{}, WithMetrics(metrics.New(reg)))

	idx, urls, err := e.Build(context.Background(), corpus())
	require.NoError(t, err)

	// Docs 1 (empty) and 3 (no words) are not counted.
	assert.Equal(t, uint64(2), idx.TotalDocs())
	assert.Equal(t, []uint32{0, 2}, idx.DocIDs("cat"))
	assert.Equal(t, uint32(2), idx.Postings("cat")[1].TermFrequency)
	assert.Nil(t, idx.Postings("x"))

	assert.Equal(t, 4, urls.Len())
	u, ok := urls.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "http://b", u)
}

func TestBuildStrictOrder(t *testing.T) {
	cfg := testConfig(t)
	cfg.StrictOrder = true
	docs := source.Slice{
		{ID: 1, URL: "a", HTML: "cat"},
		{ID: 0, URL: "b", HTML: "dog"},
	}
	_, _, err := NewEngine(cfg, identity{}).Build(context.Background(), docs)
	assert.ErrorIs(t, err, apperrors.ErrOutOfOrder)

	cfg.StrictOrder = false
	idx, _, err := NewEngine(cfg, identity{}).Build(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx.TotalDocs())
}

func TestEnsureIndexBuildsOnce(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(cfg, identity{})

	urls, err := e.EnsureIndex(context.Background(), opener(corpus()))
	require.NoError(t, err)
	assert.Equal(t, 4, urls.Len())
	for _, p := range []string{cfg.IndexPath(), cfg.URLPath(), cfg.StatsPath()} {
		assert.FileExists(t, p)
	}

	stats, err := os.ReadFile(cfg.StatsPath())
	require.NoError(t, err)
	assert.Contains(t, string(stats), "Rank,Term,Frequency\n1,cat,3\n")

	failing := func(context.Context) (ingestion.Source, error) {
		return nil, errors.New("source must not be opened")
	}
	urls, err = e.EnsureIndex(context.Background(), failing)
	require.NoError(t, err)
	assert.Equal(t, 4, urls.Len())

	idx, err := e.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx.TotalDocs())
}

func TestEnsureIndexToleratesMissingURLTable(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(cfg, identity{})
	_, err := e.EnsureIndex(context.Background(), opener(corpus()))
	require.NoError(t, err)
	require.NoError(t, os.Remove(cfg.URLPath()))

	urls, err := e.EnsureIndex(context.Background(), opener(corpus()))
	require.NoError(t, err)
	assert.Equal(t, 0, urls.Len())
}

func TestEnsureIndexSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewEngine(testConfig(t), identity{}).EnsureIndex(context.Background(),
		func(context.Context) (ingestion.Source, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestEnsureBooleanIndex(t *testing.T) {
	cfg := testConfig(t)
	e := NewEngine(cfg, identity{})

	err := e.EnsureBooleanIndex()
	assert.ErrorIs(t, err, apperrors.ErrIndexNotFound)

	_, err = e.EnsureIndex(context.Background(), opener(corpus()))
	require.NoError(t, err)
	require.NoError(t, e.EnsureBooleanIndex())

	b, err := e.LoadBooleanIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), b.TotalDocs())
	assert.Equal(t, []uint32{0, 2}, b.DocIDs("cat"))
	assert.Equal(t, []uint32{0}, b.DocIDs("dog"))

	// An existing file is kept.
	require.NoError(t, os.Remove(cfg.IndexPath()))
	require.NoError(t, e.EnsureBooleanIndex())
}
