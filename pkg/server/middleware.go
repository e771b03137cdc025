package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"scaffoldstudio/pkg/logging"
)

// requestLogger logs every request with its status and latency and feeds
// the request metrics. Health and metrics probes are not logged.
func requestLogger(logger logging.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.observeRequest(c.Request.Method, route, status, elapsed)

		if route == "/healthz" || route == "/metrics" {
			return
		}
		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("latency", elapsed),
			logging.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		default:
			logger.Info("request served", fields...)
		}
	}
}
