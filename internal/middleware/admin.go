package middleware

import (
	"net/http"
	"strings"

	"FIT-CONTRACTS/internal/auth"

	"github.com/gin-gonic/gin"
)

const adminSubjectKey = "admin_subject"

// RequireAdmin accepts a bearer token signed with secret. With an empty
// secret the admin API is closed.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin API is not configured"})
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}

		claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}

func AdminSubject(c *gin.Context) string {
	return c.GetString(adminSubjectKey)
}
