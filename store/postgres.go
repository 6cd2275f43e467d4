package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS blog_posts (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		published_at TIMESTAMPTZ,
		tags JSONB NOT NULL DEFAULT '[]',
		seo_title TEXT NOT NULL DEFAULT '',
		seo_description TEXT NOT NULL DEFAULT '',
		seo_keywords JSONB NOT NULL DEFAULT '[]',
		featured_image TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blog_posts_slug ON blog_posts(slug);
`

var postgresDialect = dialect{
	name:       "postgres",
	schema:     postgresSchema,
	returnsID:  true,
	jsonCast:   "::jsonb",
	numberedPH: true,
}

// PostgresStore persists posts in PostgreSQL
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects to dsn and creates the schema if needed
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s, err := NewPostgresStoreWithDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithDB uses an existing connection pool
func NewPostgresStoreWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s, err := newSQLStore(ctx, db, postgresDialect)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: s}, nil
}
