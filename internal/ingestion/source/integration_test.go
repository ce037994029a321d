//go:build integration

// Run with:
//
//	go test -v -tags=integration ./internal/ingestion/source/...
package source

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "textsearch_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "textsearch"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	db, err := postgres.New(context.Background(), cfg)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresSource(t *testing.T) {
	client := skipIfNoPostgres(t)
	ctx := context.Background()

	_, err := client.DB.ExecContext(ctx, `
		CREATE TEMP TABLE pages (id serial PRIMARY KEY, url text, html text);
		INSERT INTO pages (url, html) VALUES ('http://a', '<p>cat</p>'), ('http://b', NULL), (NULL, 'dog');`)
	require.NoError(t, err)

	src := NewPostgresFromDB(client.DB, "SELECT url, html FROM pages ORDER BY id")
	var docs []ingestion.Document
	require.NoError(t, src.Each(ctx, func(d ingestion.Document) error {
		docs = append(docs, d)
		return nil
	}))
	assert.Equal(t, []ingestion.Document{
		{ID: 0, URL: "http://a", HTML: "<p>cat</p>"},
		{ID: 1, URL: "http://b"},
		{ID: 2, HTML: "dog"},
	}, docs)
}

func TestMongoSource(t *testing.T) {
	ctx := context.Background()
	cfg := config.MongoConfig{
		URI:            envOrDefault("TEST_MONGO_URI", "mongodb://localhost:27017"),
		Database:       "textsearch_test",
		Collection:     "pages_" + strconv.FormatInt(time.Now().UnixNano(), 36),
		ConnectTimeout: 2 * time.Second,
	}
	raw, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(2*time.Second))
	require.NoError(t, err)
	defer raw.Disconnect(ctx)
	coll := raw.Database(cfg.Database).Collection(cfg.Collection)
	if _, err := coll.InsertMany(ctx, []any{
		bson.M{"url": "http://a", "html": "<p>cat</p>"},
		bson.M{"url": "http://b"},
	}); err != nil {
		t.Skipf("skipping integration test: mongodb unavailable: %v", err)
	}
	t.Cleanup(func() { coll.Drop(context.Background()) })

	src, err := NewMongo(ctx, cfg)
	require.NoError(t, err)
	defer src.Close()

	var docs []ingestion.Document
	require.NoError(t, src.Each(ctx, func(d ingestion.Document) error {
		docs = append(docs, d)
		return nil
	}))
	assert.Equal(t, []ingestion.Document{
		{ID: 0, URL: "http://a", HTML: "<p>cat</p>"},
		{ID: 1, URL: "http://b"},
	}, docs)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
