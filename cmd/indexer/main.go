package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/stemmer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	rebuild := flag.Bool("rebuild", false, "rebuild the index even if it exists")
	boolIndex := flag.Bool("bool", false, "also export the boolean index")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdown(context.Background())
	}

	engine := indexer.NewEngine(cfg.Index, stemmer.New(), indexer.WithMetrics(m))
	open := func(ctx context.Context) (ingestion.Source, error) {
		return source.Open(ctx, cfg.Source)
	}

	slog.Info("starting indexer", "source", cfg.Source.Type, "data_dir", cfg.Index.DataDir, "rebuild", *rebuild)
	if *rebuild {
		// A stale boolean index would no longer match.
		if err := os.Remove(cfg.Index.BooleanIndexPath()); err != nil && !os.IsNotExist(err) {
			slog.Error("removing boolean index", "error", err)
			os.Exit(1)
		}
		_, err = engine.Rebuild(ctx, open)
	} else {
		_, err = engine.EnsureIndex(ctx, open)
	}
	if err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	if *boolIndex {
		if err := engine.EnsureBooleanIndex(); err != nil {
			slog.Error("boolean index export failed", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("indexer finished")
}
