package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS blog_posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		published_at DATETIME,
		tags TEXT NOT NULL DEFAULT '[]',
		seo_title TEXT NOT NULL DEFAULT '',
		seo_description TEXT NOT NULL DEFAULT '',
		seo_keywords TEXT NOT NULL DEFAULT '[]',
		featured_image TEXT NOT NULL DEFAULT '',
		author_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blog_posts_slug ON blog_posts(slug);
`

// SQLiteStore persists posts in a SQLite file
type SQLiteStore struct {
	*sqlStore
	filePath string
}

// NewSQLiteStore opens (or creates) the database at filePath
func NewSQLiteStore(ctx context.Context, filePath string) (*SQLiteStore, error) {
	if filePath == "" {
		filePath = "posts.db"
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// one writer at a time avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	s, err := newSQLStore(ctx, db, dialect{name: "sqlite", schema: sqliteSchema})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{sqlStore: s, filePath: filePath}, nil
}
