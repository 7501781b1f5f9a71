package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/pkg/auth"
	"github.com/d60-Lab/forum-api/pkg/response"
)

const (
	CtxUserID   = "auth.user_id"
	CtxUsername = "auth.username"
)

// Auth 校验 Bearer 访问令牌并注入用户身份
func Auth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Next()
	}
}

// UserID 从上下文取当前用户 id（Auth 之后可用）
func UserID(c *gin.Context) uint {
	return c.GetUint(CtxUserID)
}

func Username(c *gin.Context) string {
	return c.GetString(CtxUsername)
}
