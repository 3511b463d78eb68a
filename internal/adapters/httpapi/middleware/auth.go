package middleware

import (
	"net/http"
	"strings"

	userapp "linkup/internal/core/user/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
)

type TokenParser interface {
	ParseToken(token string) (*userapp.Claims, error)
}

// JWTAuthMiddleware requires a valid bearer token and stores the caller in the gin context.
func JWTAuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := parser.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, uuid.FromStringOrNil(claims.Subject))
		c.Set(RoleKey, claims.Role)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

// RequireRole lets through callers whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
