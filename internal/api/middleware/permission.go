package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/response"
)

// RequirePermission 要求当前用户的有效权限集合包含 required
func RequirePermission(rbac service.RBACService, required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := rbac.Allow(c.Request.Context(), UserID(c), required)
		if err != nil {
			response.InternalError(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Forbidden(c, "permission denied")
			c.Abort()
			return
		}
		c.Next()
	}
}
