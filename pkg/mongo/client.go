// Package mongo wraps the MongoDB driver connection used to read source
// documents.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Client struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    config.MongoConfig
	logger *slog.Logger
}

// New connects and pings the primary.
func New(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Client{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
		logger: slog.Default().With("component", "mongo", "collection", cfg.Collection),
	}, nil
}

// Find opens a cursor over the whole collection in natural order, returning
// only the given fields.
func (c *Client) Find(ctx context.Context, fields ...string) (*mongo.Cursor, error) {
	projection := bson.D{{Key: "_id", Value: 0}}
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	opts := options.Find().SetProjection(projection)
	if c.cfg.BatchSize > 0 {
		opts.SetBatchSize(c.cfg.BatchSize)
	}
	cur, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s.%s: %w", c.cfg.Database, c.cfg.Collection, err)
	}
	return cur, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting from mongodb: %w", err)
	}
	c.logger.Debug("mongodb connection closed")
	return nil
}
