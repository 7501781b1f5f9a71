package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/forum-api/internal/api/middleware"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/response"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=64"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"max=64"`
	LastName  string `json:"lastName" binding:"max=64"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户并分配默认角色
// @Summary 用户注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if errors.Is(err, service.ErrUsernameTaken) {
		response.BadRequest(c, "username already taken")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, user, "User registered successfully")
}

// Login 登录换取访问令牌
// @Summary 用户登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userSvc.Login(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Unauthorized(c, "invalid username or password")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, gin.H{"token": token, "user": user}, "Login successful")
}

// GetProfile 查询用户资料
// @Summary 用户资料
// @Tags 用户
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.userSvc.GetByID(c.Request.Context(), uint(id))
	if errors.Is(err, service.ErrUserNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.SuccessMsg(c, user, "User fetched successfully")
}

// GetMyAccess 当前用户的角色与有效权限
// @Summary 查询自身权限
// @Tags 用户
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/users/me/access [get]
func (h *Handler) GetMyAccess(c *gin.Context) {
	userID := middleware.UserID(c)
	perms, err := h.rbacSvc.EffectivePermissions(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	roles, err := h.rbacSvc.EffectiveRoles(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"roles": roles, "permissions": perms})
}
