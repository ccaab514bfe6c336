package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/ratelimit"
)

// RateLimit throttles authenticated users under rule. Anonymous requests
// are keyed by client IP.
func RateLimit(l ratelimit.Allower, rule ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.ClientIP()
		if uid := UserID(c); uid != uuid.Nil {
			id = uid.String()
		}

		// Allow fails open on backend errors and reports them; the result
		// is still usable.
		ok, _ := l.Allow(c.Request.Context(), id, rule)
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
