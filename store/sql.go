package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const postColumns = `id, title, slug, summary, content, published_at, tags,
	seo_title, seo_description, seo_keywords, featured_image, author_name,
	created_at, updated_at`

// dialect holds what differs between the SQL backends
type dialect struct {
	name       string
	schema     string
	returnsID  bool // INSERT ... RETURNING id instead of LastInsertId
	jsonCast   string
	numberedPH bool // $1 instead of ?
}

// sqlStore implements Store on database/sql
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*sqlStore, error) {
	s := &sqlStore{db: db, dialect: d, now: time.Now}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		return nil, fmt.Errorf("failed to initialize %s schema: %w", d.name, err)
	}
	return s, nil
}

// bind rewrites ? placeholders for dialects with numbered parameters
func (s *sqlStore) bind(query string) string {
	if !s.dialect.numberedPH {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*BlogPost, error) {
	var (
		p           BlogPost
		publishedAt sql.NullTime
		tags        []byte
		keywords    []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Content, &publishedAt, &tags,
		&p.SEOTitle, &p.SEODescription, &keywords, &p.FeaturedImage, &p.AuthorName,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	if p.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("invalid tags for post %d: %w", p.ID, err)
	}
	if p.SEOKeywords, err = decodeList(keywords); err != nil {
		return nil, fmt.Errorf("invalid seo keywords for post %d: %w", p.ID, err)
	}
	return &p, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	return string(data), err
}

func decodeList(data []byte) ([]string, error) {
	list := []string{}
	if len(data) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *sqlStore) Create(ctx context.Context, post *BlogPost) (*BlogPost, error) {
	if err := post.Validate(); err != nil {
		return nil, err
	}

	tags, err := encodeList(post.Tags)
	if err != nil {
		return nil, err
	}
	keywords, err := encodeList(post.SEOKeywords)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var publishedAt interface{}
	if post.PublishedAt != nil {
		publishedAt = post.PublishedAt.UTC()
	}

	query := s.bind(`INSERT INTO blog_posts (title, slug, summary, content, published_at, tags,
		seo_title, seo_description, seo_keywords, featured_image, author_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?` + s.dialect.jsonCast + `, ?, ?, ?` + s.dialect.jsonCast + `, ?, ?, ?, ?)`)
	args := []interface{}{post.Title, post.Slug, post.Summary, post.Content, publishedAt, tags,
		post.SEOTitle, post.SEODescription, keywords, post.FeaturedImage, post.AuthorName, now, now}

	var id int64
	if s.dialect.returnsID {
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to insert post: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert post: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

func (s *sqlStore) Get(ctx context.Context, id int64) (*BlogPost, error) {
	row := s.db.QueryRowContext(ctx, s.bind("SELECT "+postColumns+" FROM blog_posts WHERE id = ?"), id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, postNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}
	return post, nil
}

func (s *sqlStore) GetBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	row := s.db.QueryRowContext(ctx, s.bind("SELECT "+postColumns+" FROM blog_posts WHERE slug = ? ORDER BY id LIMIT 1"), slug)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, slugNotFound(slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %q: %w", slug, err)
	}
	return post, nil
}

func (s *sqlStore) List(ctx context.Context) ([]*BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+postColumns+" FROM blog_posts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []*BlogPost{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdateSEO writes only the fields set in update; NULL parameters keep the
// stored value through COALESCE.
func (s *sqlStore) UpdateSEO(ctx context.Context, id int64, update SEOUpdate) (*BlogPost, error) {
	var title, description, keywords interface{}
	if update.Title != nil {
		title = *update.Title
	}
	if update.Description != nil {
		description = *update.Description
	}
	if update.Keywords != nil {
		encoded, err := encodeList(update.Keywords)
		if err != nil {
			return nil, err
		}
		keywords = encoded
	}

	query := s.bind(`UPDATE blog_posts SET
		seo_title = COALESCE(?, seo_title),
		seo_description = COALESCE(?, seo_description),
		seo_keywords = COALESCE(?` + s.dialect.jsonCast + `, seo_keywords),
		updated_at = ?
		WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query, title, description, keywords, s.now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, postNotFound(id)
	}

	return s.Get(ctx, id)
}

func (s *sqlStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.bind("DELETE FROM blog_posts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return postNotFound(id)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
