// Package repl is the interactive console: one query per line on the input,
// ranked or boolean answers on the output, until "exit" or end of input.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
)

const (
	exitCommand  = "exit"
	prompt       = "> "
	maxLineBytes = 1 << 20
)

type Searcher interface {
	Execute(ctx context.Context, req executor.Request) (*executor.Result, error)
}

type REPL struct {
	searcher  Searcher
	mode      string
	limit     int
	collector *analytics.Collector
	logger    *slog.Logger
}

type Option func(*REPL)

// WithCollector tracks every answered query.
func WithCollector(c *analytics.Collector) Option {
	return func(r *REPL) { r.collector = c }
}

// WithLimit sets how many results are printed per query.
func WithLimit(n int) Option {
	return func(r *REPL) { r.limit = n }
}

// New creates a loop answering in mode, metrics.ModeBoolean or
// metrics.ModeRanked.
func New(s Searcher, mode string, opts ...Option) *REPL {
	r := &REPL{
		searcher: s,
		mode:     mode,
		limit:    10,
		logger:   slog.Default().With("component", "repl"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads queries from in until "exit", end of input or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	if r.mode == metrics.ModeBoolean {
		fmt.Fprintln(w, "Mode: BOOLEAN SEARCH")
		fmt.Fprint(w, "\n"+prompt)
	} else {
		fmt.Fprintln(w, "Mode: RANKING SEARCH (TF-IDF)")
		fmt.Fprint(w, prompt)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := readLines(in, stop)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("reading queries: %w", err)
				}
				return nil
			}
			if line == exitCommand {
				return nil
			}
			r.answer(ctx, w, line)
			fmt.Fprint(w, "\n"+prompt)
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

// readLines scans in on its own goroutine so Run can return on ctx while a
// read is blocked. The goroutine stays parked in that read until in yields,
// then exits once stop is closed.
func readLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

func (r *REPL) answer(ctx context.Context, w io.Writer, query string) {
	start := time.Now()
	res, err := r.searcher.Execute(ctx, executor.Request{Query: query, Mode: r.mode, Limit: r.limit})
	if err != nil {
		r.logger.Error("query failed", "query", query, "error", err)
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	switch {
	case len(res.Results) == 0 && r.mode == metrics.ModeBoolean:
		fmt.Fprintln(w, "No documents found.")
	case len(res.Results) == 0:
		fmt.Fprintln(w, "Nothing found.")
	case r.mode == metrics.ModeBoolean:
		for _, h := range res.Results {
			fmt.Fprintf(w, "%d. %s\n", h.Rank, h.URL)
		}
	default:
		for _, h := range res.Results {
			fmt.Fprintf(w, "%d. [%.6g] %s\n", h.Rank, h.Score, h.URL)
		}
	}

	if r.collector != nil {
		r.collector.Track(analytics.SearchEvent{
			Mode:      res.Mode,
			Query:     query,
			Terms:     res.Terms,
			TotalHits: res.TotalHits,
			Returned:  len(res.Results),
			LatencyMs: time.Since(start).Milliseconds(),
			Timestamp: time.Now().UTC(),
		})
	}
}
