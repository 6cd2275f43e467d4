package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seoengine/logging"
)

// saveEvery is how many requests pass between statistics snapshots
const saveEvery = 100

// StatsMiddleware tracks visitors on every request and timing on the
// per-post analyze and optimize endpoints
func StatsMiddleware(stats *logging.Statistics, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		stats.TrackVisitor(c.ClientIP())

		c.Next()

		if logging.IsAnalysisPath(c.Request.URL.Path) {
			loadTime := float64(time.Since(start).Milliseconds())
			stats.TrackAnalysis(c.Request.URL.Path, loadTime, c.Writer.Status() >= 400)
		}

		// Periodically save statistics
		if stats.Requests()%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					log.WithError(err).Warn("failed to save traffic statistics")
				}
			}()
		}
	}
}
