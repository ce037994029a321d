// Package source implements ingestion.Source over MongoDB, PostgreSQL, JSON
// Lines files and in-memory slices.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/resilience"
)

const (
	TypeMongo    = "mongo"
	TypePostgres = "postgres"
	TypeFile     = "file"
)

// Open connects to the configured source, retrying transient connection
// failures with backoff.
func Open(ctx context.Context, cfg config.SourceConfig) (ingestion.Source, error) {
	retry := resilience.RetryConfig{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.BaseDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	}

	var src ingestion.Source
	err := resilience.Retry(ctx, "open-source-"+cfg.Type, retry, func(ctx context.Context) error {
		var err error
		switch cfg.Type {
		case TypeMongo:
			src, err = NewMongo(ctx, cfg.Mongo)
		case TypePostgres:
			src, err = NewPostgres(ctx, cfg.Postgres)
		case TypeFile:
			src, err = NewFile(cfg.File.Path)
			// A missing file will not appear by retrying.
			err = resilience.Permanent(err)
		default:
			err = resilience.Permanent(fmt.Errorf("%w: unknown source type %q", apperrors.ErrInvalidInput, cfg.Type))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	slog.Default().Info("document source opened", "type", cfg.Type)
	return src, nil
}

// counter hands out dense document ids.
type counter struct{ next uint64 }

func (c *counter) take() (uint32, error) {
	if c.next > math.MaxUint32 {
		return 0, fmt.Errorf("%w: more documents than fit a 32-bit id", apperrors.ErrInvalidInput)
	}
	id := uint32(c.next)
	c.next++
	return id, nil
}
