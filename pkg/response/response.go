package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一返回结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	// 校验失败时的 字段 -> 错误列表
	Errors map[string][]string `json:"errors,omitempty"`
}

// PageData 分页返回体
type PageData struct {
	Results      interface{} `json:"results"`
	Page         int         `json:"page"`
	Limit        int         `json:"limit"`
	TotalPages   int         `json:"totalPages"`
	TotalResults int64       `json:"totalResults"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: "success", Data: data})
}

func SuccessMsg(c *gin.Context, data interface{}, msg string) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: msg, Data: data})
}

func Created(c *gin.Context, data interface{}, msg string) {
	c.JSON(http.StatusCreated, Response{Code: http.StatusCreated, Message: msg, Data: data})
}

func Paginated(c *gin.Context, page PageData, msg string) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Message: msg, Data: page})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: msg})
}

// ValidationFailed 按字段返回校验错误
func ValidationFailed(c *gin.Context, errs map[string][]string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Message: "validation failed", Errors: errs})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: http.StatusForbidden, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: http.StatusNotFound, Message: msg})
}

// InternalError release 模式下隐藏底层错误细节
func InternalError(c *gin.Context, err error) {
	msg := "internal server error"
	if gin.Mode() != gin.ReleaseMode && err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Message: msg})
}
