package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seoengine/analyzer"
	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/generation"
	"github.com/seo-optimizer/seoengine/logging"
	"github.com/seo-optimizer/seoengine/seo"
	"github.com/seo-optimizer/seoengine/store"
	"github.com/seo-optimizer/seoengine/suggest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenStore fails every call with an unexpected error
type brokenStore struct{ store.Store }

func (brokenStore) List(context.Context) ([]*store.BlogPost, error) {
	return nil, errors.New("connection refused")
}

type testServer struct {
	router *gin.Engine
	posts  store.Store
}

func newTestServer(t *testing.T, posts store.Store, baseURL string) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()

	traffic, err := logging.NewStatistics("")
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.BaseURL = baseURL
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000

	svc := seo.NewService(posts, suggest.New(generation.Unavailable{}, logger, nil), seo.WithLogger(logger))
	srv := NewServer(cfg, svc, traffic, nil, logger)
	return &testServer{router: srv.Router(), posts: posts}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) seed(t *testing.T, slug string) *store.BlogPost {
	t.Helper()
	post, err := ts.posts.Create(context.Background(), &store.BlogPost{
		Title:       "Seeded Post",
		Slug:        slug,
		Content:     "<h2>Intro</h2><p>Some content.</p>",
		SEOKeywords: []string{"seeded post"},
	})
	require.NoError(t, err)
	return post
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")
	w := ts.do("GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyzeEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")
	post := ts.seed(t, "seeded")

	w := ts.do("GET", "/api/seo/analyze/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result analyzer.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, analyzer.New().Analyze(post.Document()).Score, result.Score)
	assert.NotEmpty(t, result.Recommendations)

	tests := []struct {
		path string
		code int
	}{
		{"/api/seo/analyze/abc", http.StatusBadRequest},
		{"/api/seo/analyze/0", http.StatusBadRequest},
		{"/api/seo/analyze/99", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.code, ts.do("GET", tt.path, "").Code)
		})
	}
}

func TestOptimizeEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")
	ts.seed(t, "seeded")

	w := ts.do("POST", "/api/seo/optimize/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var post store.BlogPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "Seeded Post", post.SEOTitle)
	assert.NotEmpty(t, post.SEOKeywords)

	assert.Equal(t, http.StatusNotFound, ts.do("POST", "/api/seo/optimize/42", "").Code)
}

func TestKeywordsEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")

	w := ts.do("POST", "/api/seo/keywords", `{"topic":"coffee","count":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var keywords []suggest.KeywordSuggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &keywords))
	assert.Equal(t, suggest.FallbackKeywords("coffee", 3), keywords)

	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/seo/keywords", `{"count":3}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/seo/keywords", `not json`).Code)
}

func TestMetaTagsEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")

	w := ts.do("POST", "/api/seo/meta-tags", `{"title":"Coffee Brewing","content":"<p>Brewing coffee at home.</p>"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var meta suggest.MetaTagSuggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, suggest.FallbackMetaTags("Coffee Brewing", "<p>Brewing coffee at home.</p>"), meta)

	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/seo/meta-tags", `{"title":"only title"}`).Code)
}

func TestBlogEndpoints(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")

	w := ts.do("POST", "/api/blog", `{"title":"Brewing Coffee","slug":"brewing-coffee","content":"<p>Brewing coffee at home.</p>"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created store.BlogPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Brewing Coffee", created.SEOTitle)
	assert.Equal(t, "Brewing coffee at home.", created.SEODescription)
	assert.Equal(t, []string{"brewing", "coffee", "home"}, created.SEOKeywords)

	assert.Equal(t, http.StatusBadRequest, ts.do("POST", "/api/blog", `{"title":"No slug"}`).Code)

	assert.Equal(t, http.StatusOK, ts.do("GET", "/api/blog/1", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do("GET", "/api/blog/2", "").Code)
	assert.Equal(t, http.StatusOK, ts.do("GET", "/api/blog/slug/brewing-coffee", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do("GET", "/api/blog/slug/unknown", "").Code)

	w = ts.do("GET", "/api/blog?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var posts []store.BlogPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	assert.Len(t, posts, 1)

	assert.Equal(t, http.StatusBadRequest, ts.do("GET", "/api/blog?limit=x", "").Code)
}

func TestReportEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")
	ts.seed(t, "one")
	ts.seed(t, "two")

	w := ts.do("GET", "/api/seo/report", "")
	require.Equal(t, http.StatusOK, w.Code)

	var scores []seo.PostScore
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scores))
	assert.Len(t, scores, 2)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	ts := newTestServer(t, brokenStore{Store: store.NewMemoryStore()}, "")

	w := ts.do("GET", "/api/seo/report", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestPublishingEndpoints(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "https://blog.example.com/")
	ts.seed(t, "seeded")

	w := ts.do("GET", "/sitemap.xml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<loc>https://blog.example.com/blog/seeded</loc>")

	w = ts.do("GET", "/robots.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Sitemap: https://blog.example.com/sitemap.xml")

	w = ts.do("GET", "/api/seo/structured-data/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/ld+json; charset=utf-8", w.Header().Get("Content-Type"))
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "BlogPosting", doc["@type"])

	assert.Equal(t, http.StatusNotFound, ts.do("GET", "/api/seo/structured-data/9", "").Code)
}

func TestBaseURLFromRequest(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")

	req := httptest.NewRequest("GET", "/robots.txt", nil)
	req.Host = "seo.local:8082"
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "Sitemap: https://seo.local:8082/sitemap.xml")
}

func TestStatisticsEndpoint(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), "")
	ts.seed(t, "seeded")
	ts.do("GET", "/api/seo/analyze/1", "")

	w := ts.do("GET", "/api/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["traffic"]["analysisRequests"])
	assert.Equal(t, float64(2), body["traffic"]["totalRequests"])
	assert.Contains(t, body, "usage")
}
