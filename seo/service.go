// Package seo ties the analyzer, the suggestion generator and the post store
// together into the operations the HTTP layer exposes.
package seo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/seoengine/analyzer"
	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/publish"
	"github.com/seo-optimizer/seoengine/stats"
	"github.com/seo-optimizer/seoengine/store"
	"github.com/seo-optimizer/seoengine/suggest"
)

const (
	// optimizeThreshold is the overall score below which posts are rewritten
	optimizeThreshold = 70
	// dimensionThreshold is the meta score below which a field is replaced
	dimensionThreshold = 7

	defaultListLimit = 10
)

// Service runs the SEO operations against a post store
type Service struct {
	posts     store.Store
	analyzer  *analyzer.Analyzer
	suggester *suggest.Suggester
	usage     *stats.Storage
	log       logrus.FieldLogger
	site      config.SiteConfig
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithUsage counts operations in usage
func WithUsage(usage *stats.Storage) Option {
	return func(s *Service) { s.usage = usage }
}

// WithSite sets the site described by sitemaps and structured data
func WithSite(site config.SiteConfig) Option {
	return func(s *Service) { s.site = site }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. The suggester may be nil, in which case
// suggestions always come from the deterministic fallbacks.
func NewService(posts store.Store, suggester *suggest.Suggester, opts ...Option) *Service {
	s := &Service{
		posts:     posts,
		analyzer:  analyzer.New(),
		suggester: suggester,
		log:       logrus.StandardLogger(),
		site:      config.Default().Site,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.suggester == nil {
		s.suggester = suggest.New(nil, s.log, s.usage)
	}
	return s
}

// AnalyzeBlogPost scores the stored post with the given id
func (s *Service) AnalyzeBlogPost(ctx context.Context, id int64) (*analyzer.Result, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.analyze(post), nil
}

func (s *Service) analyze(post *store.BlogPost) *analyzer.Result {
	s.usage.Increment(stats.Analyses, 1)
	return s.analyzer.Analyze(post.Document())
}

// OptimizeBlogPost rewrites the weak meta fields of a post scoring below 70.
// Only fields scoring below 7 are replaced; a post at or above the threshold
// is returned unchanged.
func (s *Service) OptimizeBlogPost(ctx context.Context, id int64) (*store.BlogPost, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.usage.Increment(stats.Optimizations, 1)

	result := s.analyze(post)
	if result.Score >= optimizeThreshold {
		return post, nil
	}

	lowTitle := result.MetaTags.Title.Score < dimensionThreshold
	lowDescription := result.MetaTags.Description.Score < dimensionThreshold
	lowKeywords := result.MetaTags.Keywords.Score < dimensionThreshold
	if !lowTitle && !lowDescription && !lowKeywords {
		return post, nil
	}

	meta := s.suggester.SuggestMetaTags(ctx, post.Title, post.Content)

	var update store.SEOUpdate
	if lowTitle {
		update.Title = &meta.Title
	}
	if lowDescription {
		update.Description = &meta.Description
	}
	if lowKeywords {
		update.Keywords = meta.Keywords
		if update.Keywords == nil {
			update.Keywords = []string{}
		}
	}

	updated, err := s.posts.UpdateSEO(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to store optimized post %d: %w", id, err)
	}
	s.usage.Increment(stats.PostsUpdated, 1)

	s.log.WithFields(logrus.Fields{
		"post_id":     id,
		"score":       result.Score,
		"title":       lowTitle,
		"description": lowDescription,
		"keywords":    lowKeywords,
	}).Info("optimized blog post")

	return updated, nil
}

func (s *Service) SuggestKeywords(ctx context.Context, topic string, count int) []suggest.KeywordSuggestion {
	return s.suggester.SuggestKeywords(ctx, topic, count)
}

func (s *Service) SuggestMetaTags(ctx context.Context, title, content string) suggest.MetaTagSuggestion {
	return s.suggester.SuggestMetaTags(ctx, title, content)
}

// CreatePost stores a new post, filling any missing SEO title, description
// or keywords from a single meta-tag suggestion.
func (s *Service) CreatePost(ctx context.Context, post *store.BlogPost) (*store.BlogPost, error) {
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if post.SEOTitle == "" || post.SEODescription == "" || len(post.SEOKeywords) == 0 {
		meta := s.suggester.SuggestMetaTags(ctx, post.Title, post.Content)
		if post.SEOTitle == "" {
			post.SEOTitle = meta.Title
		}
		if post.SEODescription == "" {
			post.SEODescription = meta.Description
		}
		if len(post.SEOKeywords) == 0 {
			post.SEOKeywords = meta.Keywords
		}
	}

	return s.posts.Create(ctx, post)
}

func (s *Service) GetPost(ctx context.Context, id int64) (*store.BlogPost, error) {
	return s.posts.Get(ctx, id)
}

func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*store.BlogPost, error) {
	return s.posts.GetBySlug(ctx, slug)
}

// RecentPosts returns up to limit posts, newest first. A limit of zero or
// less means 10.
func (s *Service) RecentPosts(ctx context.Context, limit int) ([]*store.BlogPost, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// PostScore is one line of a site report
type PostScore struct {
	ID                  int64  `json:"id"`
	Slug                string `json:"slug"`
	Score               int    `json:"score"`
	RecommendationCount int    `json:"recommendationCount"`
}

// Report scores every stored post, weakest first. Analyses run in parallel,
// bounded by the site's report concurrency.
func (s *Service) Report(ctx context.Context) ([]PostScore, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]PostScore, len(posts))
	g, ctx := errgroup.WithContext(ctx)
	limit := s.site.ReportConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, post := range posts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := s.analyze(post)
			scores[i] = PostScore{
				ID:                  post.ID,
				Slug:                post.Slug,
				Score:               result.Score,
				RecommendationCount: len(result.Recommendations),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score < scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	return scores, nil
}

// Sitemap renders sitemap.xml for every stored post
func (s *Service) Sitemap(ctx context.Context, baseURL string) ([]byte, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	return publish.Sitemap(baseURL, s.site.ImportantPages, posts, s.now())
}

func (s *Service) RobotsTxt(baseURL string) (string, error) {
	return publish.RobotsTxt(baseURL)
}

// StructuredData describes the post with the given id as JSON-LD
func (s *Service) StructuredData(ctx context.Context, id int64, baseURL string) (publish.BlogPosting, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return publish.BlogPosting{}, err
	}
	return publish.StructuredData(post, "", s.site.Name, baseURL, s.now()), nil
}
