package source

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
)

// Slice yields in-memory documents as given, ids included. It lets callers
// feed out-of-order ids to the indexer.
type Slice []ingestion.Document

// Pages builds a Slice from url/html pairs with dense ids.
func Pages(pairs ...[2]string) Slice {
	s := make(Slice, len(pairs))
	for i, p := range pairs {
		s[i] = ingestion.Document{ID: uint32(i), URL: p[0], HTML: p[1]}
	}
	return s
}

func (s Slice) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	for _, d := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (Slice) Close() error { return nil }
