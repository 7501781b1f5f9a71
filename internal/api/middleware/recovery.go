package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/forum-api/pkg/logger"
	"github.com/d60-Lab/forum-api/pkg/response"
)

// Recovery panic 转 500，并上报 sentry（已初始化时）
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				sentry.CurrentHub().Recover(r)
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(HeaderRequestID)),
				)
				response.InternalError(c, nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
