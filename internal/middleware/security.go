package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds response headers for a JSON-only loopback API.
// Ledger totals change with every write, so nothing is cacheable.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")

		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")

		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		c.Next()
	}
}
