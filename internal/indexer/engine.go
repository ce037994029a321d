// Package indexer drives index construction: it pulls documents from a
// source, normalizes their text into terms and persists the resulting index
// files. It also bootstraps the files the searcher needs at startup.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/htmltext"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

// Normalizer maps a word to its index term. An empty result drops the word.
type Normalizer interface {
	Stem(word string) string
}

// SourceOpener connects to the document source. It is only called when the
// index has to be built.
type SourceOpener func(ctx context.Context) (ingestion.Source, error)

type Engine struct {
	cfg     config.IndexConfig
	stem    Normalizer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(cfg config.IndexConfig, stem Normalizer, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		stem:   stem,
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Terms extracts the text of markup and returns its normalized words in
// document order.
func (e *Engine) Terms(markup string) []string {
	words := tokenizer.SegmentWords(htmltext.Extract(markup))
	terms := words[:0]
	for _, w := range words {
		if t := e.stem.Stem(w); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// Build indexes every document src yields. Each document gets a URL table
// entry; only documents that produce at least one term count towards the
// index's total.
func (e *Engine) Build(ctx context.Context, src ingestion.Source) (*index.InvertedIndex, *index.URLTable, error) {
	start := time.Now()
	idx := index.NewInvertedIndex(e.cfg.InitialBuckets)
	urls := index.NewURLTable()

	every := e.cfg.ProgressEvery
	if every <= 0 {
		every = 200
	}
	var (
		count   int
		lastID  uint32
		started bool
	)
	err := src.Each(ctx, func(doc ingestion.Document) error {
		if e.cfg.StrictOrder && started && doc.ID < lastID {
			return fmt.Errorf("%w: document %d after %d", apperrors.ErrOutOfOrder, doc.ID, lastID)
		}
		lastID, started = doc.ID, true

		urls.Set(doc.ID, doc.URL)
		if doc.HTML != "" {
			terms := e.Terms(doc.HTML)
			for _, t := range terms {
				idx.AddTerm(t, doc.ID)
			}
			if len(terms) > 0 {
				idx.IncrementDocCount()
			}
		}

		count++
		if e.metrics != nil {
			e.metrics.DocsIndexedTotal.Inc()
		}
		if count%every == 0 {
			e.logger.Info("documents processed", "count", count)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building index: %w", err)
	}

	elapsed := time.Since(start)
	e.logger.Info("index built",
		"documents", count,
		"total_docs", idx.TotalDocs(),
		"terms", idx.Len(),
		"duration", elapsed,
	)
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
		e.metrics.IndexTerms.Set(float64(idx.Len()))
		e.metrics.IndexTotalDocs.Set(float64(idx.TotalDocs()))
	}
	return idx, urls, nil
}

// Rebuild builds from the source and writes the index, the URL table and
// the term frequency statistics.
func (e *Engine) Rebuild(ctx context.Context, open SourceOpener) (*index.URLTable, error) {
	src, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	idx, urls, err := e.Build(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := idx.Save(e.cfg.IndexPath()); err != nil {
		return nil, err
	}
	if err := urls.Save(e.cfg.URLPath()); err != nil {
		return nil, err
	}
	if err := idx.ExportFrequencyStats(e.cfg.StatsPath()); err != nil {
		return nil, err
	}
	e.logger.Info("index files written",
		"index", e.cfg.IndexPath(),
		"urls", e.cfg.URLPath(),
		"stats", e.cfg.StatsPath(),
	)
	return urls, nil
}

// EnsureIndex builds the index files when the index is missing, otherwise
// it loads the URL table. A missing URL table yields an empty one.
func (e *Engine) EnsureIndex(ctx context.Context, open SourceOpener) (*index.URLTable, error) {
	if !exists(e.cfg.IndexPath()) {
		e.logger.Info("index not found, building from source", "path", e.cfg.IndexPath())
		return e.Rebuild(ctx, open)
	}
	urls := index.NewURLTable()
	if err := urls.Load(e.cfg.URLPath()); err != nil {
		if !errors.Is(err, apperrors.ErrIndexNotFound) {
			return nil, err
		}
		e.logger.Warn("url table not found, results will show UNKNOWN", "path", e.cfg.URLPath())
	}
	return urls, nil
}

// EnsureBooleanIndex converts the inverted index into the boolean index
// file if that file does not exist yet.
func (e *Engine) EnsureBooleanIndex() error {
	if exists(e.cfg.BooleanIndexPath()) {
		return nil
	}
	idx, err := e.LoadIndex()
	if err != nil {
		return fmt.Errorf("converting to boolean index: %w", err)
	}
	if err := idx.ExportToBooleanIndex(e.cfg.BooleanIndexPath()); err != nil {
		return err
	}
	e.logger.Info("boolean index exported", "path", e.cfg.BooleanIndexPath(), "terms", idx.Len())
	return nil
}

func (e *Engine) LoadIndex() (*index.InvertedIndex, error) {
	idx := index.NewInvertedIndex(e.cfg.InitialBuckets)
	if err := idx.Load(e.cfg.IndexPath()); err != nil {
		return nil, err
	}
	e.loaded("index", idx.Len(), idx.TotalDocs())
	return idx, nil
}

func (e *Engine) LoadBooleanIndex() (*index.BooleanIndex, error) {
	idx := index.NewBooleanIndex(e.cfg.InitialBuckets)
	if err := idx.Load(e.cfg.BooleanIndexPath()); err != nil {
		return nil, err
	}
	e.loaded("boolean index", idx.Len(), idx.TotalDocs())
	return idx, nil
}

func (e *Engine) loaded(kind string, terms int, totalDocs uint64) {
	e.logger.Info(kind+" loaded", "terms", terms, "total_docs", totalDocs)
	if e.metrics != nil {
		e.metrics.IndexTerms.Set(float64(terms))
		e.metrics.IndexTotalDocs.Set(float64(totalDocs))
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
