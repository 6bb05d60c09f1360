package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/metrics"
)

// Observe logs one line per request and records HTTP metrics. Unmatched
// routes are labelled "unmatched" to keep label cardinality bounded.
func Observe(log *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, path, status, elapsed)

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
