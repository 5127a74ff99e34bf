package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────
// API Key Authentication Middleware
//
// Protected routes require: x-api-key: <configured key>
//
// Auth failures are the only non-200 responses the honeypot endpoint
// ever produces; everything past this middleware follows the
// always-200 policy.
// ──────────────────────────────────────────────────────────────────

// APIKeyAuth returns a Gin middleware validating the x-api-key header.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("x-api-key")
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"detail": "Missing API key. Please provide the 'x-api-key' header.",
			})
			c.Abort()
			return
		}

		// Constant-time comparison to prevent timing-based key enumeration.
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"detail": "Invalid API key.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
