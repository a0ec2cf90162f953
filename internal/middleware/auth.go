package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserIDKey = "user_id"
	ctxLoginKey  = "user_login"
)

// RequireAuth validates the Bearer token and resolves the requester id
// into the request context. Protected handlers read it back with
// RequesterID.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header with Bearer token is required",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_authorization",
				"message": "Authorization header must use the Bearer scheme",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token is invalid or expired",
			})
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxLoginKey, claims.Login)

		c.Next()
	}
}

// RequesterID extracts the authenticated user id set by RequireAuth.
func RequesterID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
