package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/forum-api/config"
	_ "github.com/d60-Lab/forum-api/docs"
	"github.com/d60-Lab/forum-api/internal/api/handler"
	"github.com/d60-Lab/forum-api/internal/api/middleware"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/auth"
)

// NewRouter 组装路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler, tokens *auth.TokenManager, rbac service.RBACService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Trace.Enabled {
		r.Use(otelgin.Middleware("forum-api"))
	}
	if cfg.Rate.RPS > 0 {
		r.Use(middleware.RateLimit(cfg.Rate.RPS, cfg.Rate.Burst))
	}

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
		}

		users := v1.Group("/users", middleware.Auth(tokens))
		{
			users.GET("/me/access", h.GetMyAccess)
			users.GET("/:id", middleware.RequirePermission(rbac, service.PermReadUsers), h.GetProfile)
		}

		threads := v1.Group("/threads")
		{
			threads.GET("", h.ListThreads)
			threads.GET("/:id", h.GetThread)

			authed := threads.Group("", middleware.Auth(tokens))
			{
				authed.POST("", middleware.RequirePermission(rbac, service.PermCreateThreads), h.CreateThread)
				authed.GET("/me", h.ListMyThreads)
				authed.POST("/:id/comments", h.CreateComment)
				authed.POST("/:id/subscribe", h.Subscribe)
				authed.DELETE("/:id/subscribe", h.Unsubscribe)
				authed.DELETE("/:id", h.DeleteThread)
			}
		}

		v1.GET("/notifications", middleware.Auth(tokens), h.ListNotifications)
	}

	return r
}
