package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-relations/pkg/apperror"
	"github.com/oksasatya/go-user-relations/pkg/helpers"
	"github.com/oksasatya/go-user-relations/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

// Auth validates the bearer token in the Authorization header.
// It sets userID and userEmail in the Gin context on success.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.FromError(c, apperror.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			response.FromError(c, apperror.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.FromError(c, apperror.Unauthorized("invalid bearer token"))
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}
