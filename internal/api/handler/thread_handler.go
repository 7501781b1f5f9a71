package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/internal/api/middleware"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/response"
)

type createThreadRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"required"`
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

func threadIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid thread id")
		return 0, false
	}
	return uint(id), true
}

// CreateThread 创建帖子（作者自动订阅）
// @Summary 创建帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createThreadRequest true "帖子信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/threads [post]
func (h *Handler) CreateThread(c *gin.Context) {
	var req createThreadRequest
	if !bindJSON(c, &req) {
		return
	}
	thread, err := h.threadSvc.CreateThread(c.Request.Context(), middleware.UserID(c), req.Title, req.Description)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, thread, "Thread created successfully")
}

// ListThreads 分页查询帖子
// @Summary 帖子列表
// @Tags 帖子
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/threads [get]
func (h *Handler) ListThreads(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := h.threadSvc.ListThreads(c.Request.Context(), page, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paginated(c, response.PageData{
		Results:      res.Results,
		Page:         res.Page,
		Limit:        res.Limit,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
	}, "Threads fetched successfully")
}

// ListMyThreads 当前用户发布的帖子
// @Summary 我的帖子
// @Tags 帖子
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/threads/me [get]
func (h *Handler) ListMyThreads(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	res, err := h.threadSvc.ListThreadsByAuthor(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paginated(c, response.PageData{
		Results:      res.Results,
		Page:         res.Page,
		Limit:        res.Limit,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
	}, "User threads fetched successfully")
}

// GetThread 帖子详情（含评论，新的在前）
// @Summary 帖子详情
// @Tags 帖子
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id} [get]
func (h *Handler) GetThread(c *gin.Context) {
	id, ok := threadIDParam(c)
	if !ok {
		return
	}
	detail, err := h.threadSvc.GetThread(c.Request.Context(), id)
	if errors.Is(err, service.ErrThreadNotFound) {
		response.NotFound(c, "Thread not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, detail, "Thread fetched successfully")
}

// CreateComment 发表评论并通知订阅者（不含评论者本人）
// @Summary 发表评论
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Param request body createCommentRequest true "评论内容"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	id, ok := threadIDParam(c)
	if !ok {
		return
	}
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.threadSvc.CreateComment(c.Request.Context(), id, middleware.UserID(c), middleware.Username(c), req.Content)
	if errors.Is(err, service.ErrThreadNotFound) {
		response.NotFound(c, "Thread not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, comment, "Comment added successfully")
}

// Subscribe 订阅帖子（幂等）
// @Summary 订阅帖子
// @Tags 订阅
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response
// @Router /api/v1/threads/{id}/subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	id, ok := threadIDParam(c)
	if !ok {
		return
	}
	already, err := h.threadSvc.Subscribe(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if already {
		response.SuccessMsg(c, nil, "Already subscribed")
		return
	}
	response.SuccessMsg(c, nil, "Subscribed successfully")
}

// Unsubscribe 取消订阅（幂等）
// @Summary 取消订阅
// @Tags 订阅
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response
// @Router /api/v1/threads/{id}/subscribe [delete]
func (h *Handler) Unsubscribe(c *gin.Context) {
	id, ok := threadIDParam(c)
	if !ok {
		return
	}
	if err := h.threadSvc.Unsubscribe(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, nil, "Unsubscribed successfully")
}

// DeleteThread 软删除帖子（作者本人或持 delete_threads 权限）
// @Summary 删除帖子
// @Tags 帖子
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id} [delete]
func (h *Handler) DeleteThread(c *gin.Context) {
	id, ok := threadIDParam(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	canModerate, err := h.rbacSvc.Allow(c.Request.Context(), userID, service.PermDeleteThreads)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	err = h.threadSvc.DeleteThread(c.Request.Context(), id, userID, canModerate)
	if errors.Is(err, service.ErrThreadNotFound) {
		response.NotFound(c, "Thread not found")
		return
	}
	if errors.Is(err, service.ErrNotThreadOwner) {
		response.Forbidden(c, "not allowed to delete this thread")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, nil, "Thread deleted successfully")
}
