package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type pageRow struct {
	URL  sql.NullString `db:"url"`
	HTML sql.NullString `db:"html"`
}

// Postgres runs the configured query and indexes its url and html columns.
// NULLs read as empty strings.
type Postgres struct {
	db    *sqlx.DB
	query string
	close func() error
}

func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	client, err := postgres.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: client.DB, query: cfg.Query, close: client.Close}, nil
}

// NewPostgresFromDB wraps an existing connection.
func NewPostgresFromDB(db *sqlx.DB, query string) *Postgres {
	return &Postgres{db: db, query: query, close: db.Close}
}

func (p *Postgres) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	rows, err := p.db.QueryxContext(ctx, p.query)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var ids counter
	for rows.Next() {
		var row pageRow
		if err := rows.StructScan(&row); err != nil {
			return fmt.Errorf("scanning document %d: %w", ids.next, err)
		}
		id, err := ids.take()
		if err != nil {
			return err
		}
		if err := fn(ingestion.Document{ID: id, URL: row.URL.String, HTML: row.HTML.String}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating document rows: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.close()
}
