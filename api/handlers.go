package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoengine/store"
)

type keywordsRequest struct {
	Topic string `json:"topic" binding:"required"`
	Count int    `json:"count"`
}

type metaTagsRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type createPostRequest struct {
	Title          string     `json:"title" binding:"required"`
	Slug           string     `json:"slug" binding:"required"`
	Summary        string     `json:"summary"`
	Content        string     `json:"content" binding:"required"`
	PublishedAt    *time.Time `json:"publishedAt"`
	Tags           []string   `json:"tags"`
	SEOTitle       string     `json:"seoTitle"`
	SEODescription string     `json:"seoDescription"`
	SEOKeywords    []string   `json:"seoKeywords"`
	FeaturedImage  string     `json:"featuredImage"`
	AuthorName     string     `json:"authorName"`
}

func (r createPostRequest) post() *store.BlogPost {
	return &store.BlogPost{
		Title:          r.Title,
		Slug:           r.Slug,
		Summary:        r.Summary,
		Content:        r.Content,
		PublishedAt:    r.PublishedAt,
		Tags:           r.Tags,
		SEOTitle:       r.SEOTitle,
		SEODescription: r.SEODescription,
		SEOKeywords:    r.SEOKeywords,
		FeaturedImage:  r.FeaturedImage,
		AuthorName:     r.AuthorName,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (s *Server) statistics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"traffic": s.traffic.GetStatistics(),
		"usage":   s.usage.GetCurrentStats(),
	})
}

func (s *Server) listPosts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	posts, err := s.service.RecentPosts(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := s.service.GetPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) getPostBySlug(c *gin.Context) {
	post, err := s.service.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) createPost(c *gin.Context) {
	var request createPostRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Title, slug and content are required",
		})
		return
	}

	post, err := s.service.CreatePost(c.Request.Context(), request.post())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) analyzePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	result, err := s.service.AnalyzeBlogPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) optimizePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := s.service.OptimizeBlogPost(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) suggestKeywords(c *gin.Context) {
	var request keywordsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Topic is required",
		})
		return
	}
	c.JSON(http.StatusOK, s.service.SuggestKeywords(c.Request.Context(), request.Topic, request.Count))
}

func (s *Server) suggestMetaTags(c *gin.Context) {
	var request metaTagsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Title and content are required",
		})
		return
	}
	c.JSON(http.StatusOK, s.service.SuggestMetaTags(c.Request.Context(), request.Title, request.Content))
}

func (s *Server) report(c *gin.Context) {
	scores, err := s.service.Report(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scores)
}

func (s *Server) structuredData(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	doc, err := s.service.StructuredData(c.Request.Context(), id, s.baseURL(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "application/ld+json; charset=utf-8")
	c.JSON(http.StatusOK, doc)
}

func (s *Server) sitemap(c *gin.Context) {
	data, err := s.service.Sitemap(c.Request.Context(), s.baseURL(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", data)
}

func (s *Server) robots(c *gin.Context) {
	text, err := s.service.RobotsTxt(s.baseURL(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// postID parses the :id parameter, answering 400 when it is not a positive
// integer
func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid blog post ID",
		})
		return 0, false
	}
	return id, true
}

// fail maps service errors onto status codes
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case store.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Blog post not found"})
	case store.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// baseURL prefers the configured public URL and otherwise rebuilds it from
// the request
func (s *Server) baseURL(c *gin.Context) string {
	if s.publicURL != "" {
		return strings.TrimRight(s.publicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
