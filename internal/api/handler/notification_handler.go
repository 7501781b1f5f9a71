package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/internal/api/middleware"
	"github.com/d60-Lab/forum-api/pkg/response"
)

// ListNotifications 当前用户的站内通知（新的在前）
// @Summary 通知列表
// @Tags 通知
// @Security BearerAuth
// @Param limit query int false "数量上限" default(50)
// @Success 200 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.notifRepo.ListByUser(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, list, "Notifications fetched successfully")
}
