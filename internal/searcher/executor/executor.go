// Package executor runs a query against the loaded indexes: it dispatches
// on mode, restricts ranked scoring by an optional boolean filter, cuts the
// answer to the requested size and resolves document URLs.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/tracing"
)

// UnknownURL is shown for ids missing from the URL table.
const UnknownURL = "UNKNOWN"

type Request struct {
	Query string
	// Mode is metrics.ModeBoolean, metrics.ModeRanked or metrics.ModeHybrid.
	// Empty selects the executor's default.
	Mode string
	// Filter is a boolean expression restricting ranked results. Setting it
	// on a ranked request makes the request hybrid.
	Filter string
	Limit  int
}

type Hit struct {
	Rank  int     `json:"rank"`
	DocID uint32  `json:"doc_id"`
	URL   string  `json:"url"`
	Score float64 `json:"score,omitempty"`
}

type Result struct {
	Query     string   `json:"query"`
	Mode      string   `json:"mode"`
	Terms     []string `json:"terms,omitempty"`
	TotalHits int      `json:"total_hits"`
	Results   []Hit    `json:"results"`
}

type Executor struct {
	parser      *parser.Parser
	inverted    *index.InvertedIndex
	boolean     *index.BooleanIndex
	urls        *index.URLTable
	defaultMode string
	topK        int
	maxResults  int
	metrics     *metrics.Metrics
	tracer      *tracing.Tracer
	logger      *slog.Logger
}

type Option func(*Executor)

// WithInvertedIndex enables ranked and hybrid queries.
func WithInvertedIndex(idx *index.InvertedIndex) Option {
	return func(e *Executor) { e.inverted = idx }
}

// WithBooleanIndex enables boolean queries and hybrid filters.
func WithBooleanIndex(idx *index.BooleanIndex) Option {
	return func(e *Executor) { e.boolean = idx }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithTracer(t *tracing.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// WithDefaultMode sets the mode used when a request leaves it empty.
func WithDefaultMode(mode string) Option {
	return func(e *Executor) { e.defaultMode = mode }
}

func New(p *parser.Parser, urls *index.URLTable, cfg config.SearchConfig, opts ...Option) *Executor {
	if urls == nil {
		urls = index.NewURLTable()
	}
	e := &Executor{
		parser:      p,
		urls:        urls,
		defaultMode: metrics.ModeRanked,
		topK:        cfg.TopK,
		maxResults:  cfg.MaxResults,
		logger:      slog.Default().With("component", "query-executor"),
	}
	if e.topK <= 0 {
		e.topK = 10
	}
	if e.maxResults < e.topK {
		e.maxResults = e.topK
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode resolves the effective mode of req.
func (e *Executor) Mode(req Request) string {
	mode := req.Mode
	if mode == "" {
		mode = e.defaultMode
	}
	if mode == metrics.ModeRanked && req.Filter != "" {
		mode = metrics.ModeHybrid
	}
	return mode
}

// Limit clamps a requested result count to (0, maxResults]; zero or less
// means topK.
func (e *Executor) Limit(n int) int {
	if n <= 0 {
		return e.topK
	}
	return min(n, e.maxResults)
}

func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	mode := e.Mode(req)
	limit := e.Limit(req.Limit)

	ctx, span := e.tracer.Start(ctx, "search")
	span.SetAttr("mode", mode)
	defer span.End()

	var (
		res *Result
		err error
	)
	switch mode {
	case metrics.ModeBoolean:
		res, err = e.executeBoolean(ctx, req.Query, limit)
	case metrics.ModeRanked, metrics.ModeHybrid:
		res, err = e.executeRanked(ctx, req.Query, req.Filter, limit)
	default:
		err = fmt.Errorf("%w: unknown search mode %q", apperrors.ErrInvalidInput, mode)
	}
	if err != nil {
		e.observe(mode, "invalid", 0, time.Since(start))
		return nil, err
	}
	res.Query = req.Query
	res.Mode = mode

	outcome := "hit"
	if res.TotalHits == 0 {
		outcome = "zero_result"
	}
	e.observe(mode, outcome, res.TotalHits, time.Since(start))
	e.logger.Debug("query executed",
		"query", req.Query,
		"mode", mode,
		"total_hits", res.TotalHits,
		"returned", len(res.Results),
	)
	return res, nil
}

func (e *Executor) executeBoolean(ctx context.Context, query string, limit int) (*Result, error) {
	if e.boolean == nil {
		return nil, fmt.Errorf("%w: boolean index not loaded", apperrors.ErrIndexNotFound)
	}
	_, span := tracing.StartChild(ctx, "evaluate")
	ids := e.parser.ParseBoolean(query, e.boolean)
	span.SetAttr("matches", len(ids))
	span.End()

	_, span = tracing.StartChild(ctx, "resolve")
	defer span.End()
	n := min(len(ids), limit)
	hits := make([]Hit, n)
	for i, id := range ids[:n] {
		hits[i] = Hit{Rank: i + 1, DocID: id, URL: e.url(id)}
	}
	return &Result{TotalHits: len(ids), Results: hits}, nil
}

func (e *Executor) executeRanked(ctx context.Context, query, filter string, limit int) (*Result, error) {
	if e.inverted == nil {
		return nil, fmt.Errorf("%w: index not loaded", apperrors.ErrIndexNotFound)
	}
	if e.inverted.TotalDocs() == 0 {
		return nil, apperrors.ErrEmptyIndex
	}

	_, span := tracing.StartChild(ctx, "parse")
	terms := e.parser.ParseTerms(query)
	span.SetAttr("terms", len(terms))
	span.End()

	var allowed []uint32
	if filter != "" {
		_, span = tracing.StartChild(ctx, "filter")
		allowed = e.parser.ParseBoolean(filter, e.filterIndex())
		span.SetAttr("allowed", len(allowed))
		span.End()
	}

	_, span = tracing.StartChild(ctx, "rank")
	scored := ranker.Search(terms, e.inverted, allowed)
	span.End()

	_, span = tracing.StartChild(ctx, "resolve")
	defer span.End()
	n := min(len(scored), limit)
	hits := make([]Hit, n)
	for i, r := range scored[:n] {
		hits[i] = Hit{Rank: i + 1, DocID: r.DocID, URL: e.url(r.DocID), Score: r.Score}
	}
	return &Result{Terms: terms, TotalHits: len(scored), Results: hits}, nil
}

// Check reports whether queries can be answered. It is Down with no index
// or an empty inverted index, and Degraded while only one of the two
// indexes is loaded, since some modes will then fail.
func (e *Executor) Check(_ context.Context) health.ComponentHealth {
	switch {
	case e.inverted == nil && e.boolean == nil:
		return health.ComponentHealth{Status: health.StatusDown, Message: "no index loaded"}
	case e.inverted != nil && e.inverted.TotalDocs() == 0:
		return health.ComponentHealth{Status: health.StatusDown, Message: "index is empty"}
	case e.inverted == nil:
		return health.ComponentHealth{
			Status:  health.StatusDegraded,
			Message: fmt.Sprintf("boolean only: %d docs, %d terms", e.boolean.TotalDocs(), e.boolean.Len()),
		}
	case e.boolean == nil:
		return health.ComponentHealth{
			Status:  health.StatusDegraded,
			Message: fmt.Sprintf("ranked only: %d docs, %d terms", e.inverted.TotalDocs(), e.inverted.Len()),
		}
	}
	return health.ComponentHealth{
		Status:  health.StatusUp,
		Message: fmt.Sprintf("%d docs, %d terms", e.inverted.TotalDocs(), e.inverted.Len()),
	}
}

// filterIndex prefers the boolean index and falls back to the inverted one,
// which answers the same document-set queries.
func (e *Executor) filterIndex() parser.DocSetIndex {
	if e.boolean != nil {
		return e.boolean
	}
	return e.inverted
}

func (e *Executor) url(id uint32) string {
	if u, ok := e.urls.Get(id); ok {
		return u
	}
	return UnknownURL
}

func (e *Executor) observe(mode, outcome string, hits int, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(mode, outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
	if outcome != "invalid" {
		e.metrics.SearchResultsCount.WithLabelValues(mode).Observe(float64(hits))
	}
}
