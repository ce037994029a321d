// Package ingestion defines the documents the indexer consumes and the
// Source contract every document store implements.
package ingestion

import "context"

// Document is one page to index. IDs are assigned densely from 0 in the
// order the source yields documents, including documents with no markup.
type Document struct {
	ID   uint32
	URL  string
	HTML string
}

// Source streams documents in a stable order. Each stops at the first error
// returned by fn and returns it.
type Source interface {
	Each(ctx context.Context, fn func(Document) error) error
	Close() error
}
