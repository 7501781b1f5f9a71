package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/pkg/response"
)

// Health 健康检查（含数据库连通性）
// @Summary 健康检查
// @Tags 系统
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
