package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/venturelink/messaging/internal/messaging"
)

// APIRateLimit caps requests per user per minute across all API endpoints.
// Runs after Auth; the per-operation send quotas live in the message store.
func APIRateLimit(counter messaging.Counter, perMinute int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		count, err := counter.Incr(c.Request.Context(), "api:"+p.ID.String(), time.Minute)
		if err != nil {
			// Fail open: a counter outage must not take the API down.
			c.Next()
			return
		}
		if count > perMinute {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
