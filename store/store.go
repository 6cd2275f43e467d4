// Package store persists the blog posts the SEO engine scores.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/seo-optimizer/seoengine/analyzer"
	"github.com/seo-optimizer/seoengine/config"
)

// BlogPost is a stored blog article with its SEO metadata
type BlogPost struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Summary        string     `json:"summary"`
	Content        string     `json:"content"`
	PublishedAt    *time.Time `json:"publishedAt"`
	Tags           []string   `json:"tags"`
	SEOTitle       string     `json:"seoTitle"`
	SEODescription string     `json:"seoDescription"`
	SEOKeywords    []string   `json:"seoKeywords"`
	FeaturedImage  string     `json:"featuredImage"`
	AuthorName     string     `json:"authorName"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Document projects the post onto the fields the analyzer scores
func (p *BlogPost) Document() analyzer.Document {
	return analyzer.Document{
		Title:          p.Title,
		Slug:           p.Slug,
		Content:        p.Content,
		SEOTitle:       p.SEOTitle,
		SEODescription: p.SEODescription,
		SEOKeywords:    p.SEOKeywords,
	}
}

// Validate checks the fields every post must carry
func (p *BlogPost) Validate() error {
	switch {
	case p.Title == "":
		return &ValidationError{Field: "title", Message: "is required"}
	case p.Slug == "":
		return &ValidationError{Field: "slug", Message: "is required"}
	case p.Content == "":
		return &ValidationError{Field: "content", Message: "is required"}
	}
	return nil
}

func (p *BlogPost) clone() *BlogPost {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	c.SEOKeywords = append([]string{}, p.SEOKeywords...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

// SEOUpdate overwrites the SEO fields that are set. A nil field is left
// unchanged; an empty, non-nil Keywords slice clears the keywords.
type SEOUpdate struct {
	Title       *string
	Description *string
	Keywords    []string
}

// Empty reports whether the update changes nothing
func (u SEOUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Keywords == nil
}

func (u SEOUpdate) apply(p *BlogPost) {
	if u.Title != nil {
		p.SEOTitle = *u.Title
	}
	if u.Description != nil {
		p.SEODescription = *u.Description
	}
	if u.Keywords != nil {
		p.SEOKeywords = append([]string{}, u.Keywords...)
	}
}

// Store is the document source of the SEO engine
type Store interface {
	Create(ctx context.Context, post *BlogPost) (*BlogPost, error)
	Get(ctx context.Context, id int64) (*BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*BlogPost, error)
	List(ctx context.Context) ([]*BlogPost, error)
	UpdateSEO(ctx context.Context, id int64, update SEOUpdate) (*BlogPost, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// ErrNotFound is matched by every NotFoundError through errors.Is
var ErrNotFound = errors.New("not found")

// NotFoundError represents a missing post
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func postNotFound(id int64) error {
	return &NotFoundError{Resource: "blog post", ID: strconv.FormatInt(id, 10)}
}

func slugNotFound(slug string) error {
	return &NotFoundError{Resource: "blog post", ID: slug}
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// ValidationError represents an invalid post
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// Open creates the store selected by cfg
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
