// Package api exposes the SEO service over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/logging"
	"github.com/seo-optimizer/seoengine/middleware"
	"github.com/seo-optimizer/seoengine/seo"
	"github.com/seo-optimizer/seoengine/stats"
)

// Server holds what the HTTP handlers need
type Server struct {
	service   *seo.Service
	traffic   *logging.Statistics
	usage     *stats.Storage
	log       logrus.FieldLogger
	limiter   *middleware.RateLimiter
	publicURL string
}

// NewServer creates the HTTP layer. usage may be nil.
func NewServer(cfg config.ServerConfig, service *seo.Service, traffic *logging.Statistics, usage *stats.Storage, log logrus.FieldLogger) *Server {
	return &Server{
		service:   service,
		traffic:   traffic,
		usage:     usage,
		log:       log,
		limiter:   middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		publicURL: cfg.BaseURL,
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(middleware.ErrorHandler(s.log))
	r.Use(middleware.RequestID(s.log))
	r.Use(s.limiter.RateLimit())
	r.Use(middleware.CORS())
	r.Use(middleware.StatsMiddleware(s.traffic, s.log))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)

		blog := api.Group("/blog")
		{
			blog.GET("", s.listPosts)
			blog.POST("", s.createPost)
			blog.GET("/slug/:slug", s.getPostBySlug)
			blog.GET("/:id", s.getPost)
		}

		seoRoutes := api.Group("/seo")
		{
			seoRoutes.GET("/analyze/:id", s.analyzePost)
			seoRoutes.POST("/optimize/:id", s.optimizePost)
			seoRoutes.POST("/keywords", s.suggestKeywords)
			seoRoutes.POST("/meta-tags", s.suggestMetaTags)
			seoRoutes.GET("/report", s.report)
			seoRoutes.GET("/structured-data/:id", s.structuredData)
		}
	}

	r.GET("/sitemap.xml", s.sitemap)
	r.GET("/robots.txt", s.robots)

	return r
}
