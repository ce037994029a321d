package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/stemmer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/repl"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	boolMode := flag.Bool("bool", false, "answer boolean queries instead of ranked ones")
	httpAddr := flag.String("http", "", "serve the search API on this address instead of reading stdin")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *boolMode, *httpAddr); err != nil {
		slog.Error("searcher failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, boolMode bool, httpAddr string) error {
	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	stem := stemmer.New()
	engine := indexer.NewEngine(cfg.Index, stem, indexer.WithMetrics(m))
	urls, err := engine.EnsureIndex(ctx, func(ctx context.Context) (ingestion.Source, error) {
		return source.Open(ctx, cfg.Source)
	})
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}

	serving := httpAddr != ""
	opts := []executor.Option{
		executor.WithMetrics(m),
		executor.WithTracer(tracing.NewTracer(cfg.Tracing.Enabled)),
	}
	mode := metrics.ModeRanked

	if boolMode || serving {
		if err := engine.EnsureBooleanIndex(); err != nil {
			return err
		}
		boolIdx, err := engine.LoadBooleanIndex()
		if err != nil {
			return err
		}
		opts = append(opts, executor.WithBooleanIndex(boolIdx))
		if boolMode {
			mode = metrics.ModeBoolean
		}
	}
	if !boolMode || serving {
		idx, err := engine.LoadIndex()
		if err != nil {
			return err
		}
		if idx.TotalDocs() == 0 {
			return fmt.Errorf("%w: delete %s and run again", apperrors.ErrEmptyIndex, cfg.Index.IndexPath())
		}
		opts = append(opts, executor.WithInvertedIndex(idx))
	}
	opts = append(opts, executor.WithDefaultMode(mode))
	exec := executor.New(parser.New(stem), urls, cfg.Search, opts...)

	aggregator := analytics.NewAggregator()
	collector, closeCollector := startCollector(ctx, cfg.Kafka, aggregator, m)
	defer closeCollector()

	if serving {
		return serve(ctx, cfg, httpAddr, exec, collector, aggregator, m)
	}

	r := repl.New(exec, mode, repl.WithLimit(cfg.Search.TopK), repl.WithCollector(collector))
	if err := r.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// startCollector publishes search events to Kafka when it is enabled; the
// in-process aggregator is fed either way.
func startCollector(ctx context.Context, cfg config.KafkaConfig, agg *analytics.Aggregator, m *metrics.Metrics) (*analytics.Collector, func()) {
	var (
		publisher analytics.Publisher
		producer  *kafka.Producer
	)
	if cfg.Enabled {
		producer = kafka.NewProducer(cfg, cfg.AnalyticsTopic)
		publisher = producer
		slog.Info("search analytics publishing enabled", "topic", cfg.AnalyticsTopic, "brokers", cfg.Brokers)
	}
	collector := analytics.NewCollector(publisher, cfg.BufferSize,
		analytics.WithAggregator(agg),
		analytics.WithDropHook(m.AnalyticsDropped.Inc),
	)
	collector.Start(ctx)
	return collector, func() {
		collector.Close()
		if producer != nil {
			if err := producer.Close(); err != nil {
				slog.Error("closing kafka producer", "error", err)
			}
		}
	}
}
