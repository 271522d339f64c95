package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/todo-grow/backend/internal/constants"
	apierrors "github.com/todo-grow/backend/internal/errors"
	"github.com/todo-grow/backend/internal/services"
)

// TokenParser verifies access tokens
type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

// RequireAuth checks the Bearer access token in the Authorization header
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyNickname, claims.Nickname)
		c.Next()
	}
}

// DevAuth authenticates every request as userID. Only for local development.
func DevAuth(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
