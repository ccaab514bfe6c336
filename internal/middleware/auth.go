// Package middleware holds the gin middleware shared by the API routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusnest/forum/internal/auth"
)

// Context keys set by Auth.
const (
	KeyUserID = "user_id"
	KeyClaims = "claims"
)

// TokenValidator is satisfied by auth.JWTService.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Auth requires a valid bearer token. Browsers cannot set headers on
// websocket upgrades, so a "token" query parameter is accepted as well.
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		claims, err := v.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyClaims, claims)
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(KeyClaims)
		claims, ok := v.(*auth.Claims)
		if !ok || !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user, or uuid.Nil outside Auth.
func UserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
