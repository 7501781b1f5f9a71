package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/d60-Lab/forum-api/internal/repository"
	"github.com/d60-Lab/forum-api/internal/service"
	"github.com/d60-Lab/forum-api/pkg/auth"
	"github.com/d60-Lab/forum-api/pkg/response"
)

type Handler struct {
	db        *gorm.DB
	tokens    *auth.TokenManager
	userSvc   service.UserService
	threadSvc service.ThreadService
	rbacSvc   service.RBACService
	notifRepo repository.NotificationRepository
}

func New(db *gorm.DB, tokens *auth.TokenManager, userSvc service.UserService, threadSvc service.ThreadService, rbacSvc service.RBACService, notifRepo repository.NotificationRepository) *Handler {
	return &Handler{db: db, tokens: tokens, userSvc: userSvc, threadSvc: threadSvc, rbacSvc: rbacSvc, notifRepo: notifRepo}
}

// bindJSON 绑定并把校验错误整理为 字段 -> 错误列表
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		fields := make(map[string][]string, len(vErrs))
		for _, fe := range vErrs {
			name := strings.ToLower(fe.Field())
			fields[name] = append(fields[name], fe.Tag())
		}
		response.ValidationFailed(c, fields)
		return false
	}
	response.BadRequest(c, err.Error())
	return false
}
