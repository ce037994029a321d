package source

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/mongo"
)

type mongoPage struct {
	URL  string `bson:"url"`
	HTML string `bson:"html"`
}

// Mongo reads the url and html fields of every document in a collection.
// Missing fields read as empty strings.
type Mongo struct {
	client *mongo.Client
}

func NewMongo(ctx context.Context, cfg config.MongoConfig) (*Mongo, error) {
	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Mongo{client: client}, nil
}

func (m *Mongo) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	cur, err := m.client.Find(ctx, "url", "html")
	if err != nil {
		return err
	}
	defer cur.Close(context.Background())

	var ids counter
	for cur.Next(ctx) {
		var page mongoPage
		if err := cur.Decode(&page); err != nil {
			return fmt.Errorf("decoding document %d: %w", ids.next, err)
		}
		id, err := ids.take()
		if err != nil {
			return err
		}
		if err := fn(ingestion.Document{ID: id, URL: page.URL, HTML: page.HTML}); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("iterating mongodb cursor: %w", err)
	}
	return nil
}

func (m *Mongo) Close() error {
	return m.client.Close()
}
