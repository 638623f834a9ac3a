package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/metrics"
)

// RequestIDHeader carries the correlation id in and out
const RequestIDHeader = "X-Request-ID"

// TriggerAPI marks contexts of HTTP requests
const TriggerAPI = "api"

// RequestContext attaches a request id, the api trigger and log to the
// request context. An incoming X-Request-ID is kept.
func RequestContext(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader(RequestIDHeader))
		ctx = logger.WithTrigger(ctx, TriggerAPI)
		ctx = logger.WithLogger(ctx, log)

		requestID := logger.RequestIDFromContext(ctx)
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// Logger middleware for logging HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(method, route, statusCode, latency)

		fields := []logger.Field{
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", statusCode),
			logger.Duration("latency", latency),
		}
		log := logger.Ctx(c.Request.Context())
		switch {
		case statusCode >= 500:
			log.Error("request failed", fields...)
		case statusCode >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
