package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response JSON 接口统一响应
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var defaultMessages = map[int]string{
	http.StatusBadRequest:          "请求参数错误",
	http.StatusUnauthorized:        "未登录",
	http.StatusConflict:            "视图已失效，请重新加载页面",
	http.StatusTooManyRequests:     "操作过于频繁，请稍后再试",
	http.StatusInternalServerError: "服务器内部错误",
}

// Success 200 并携带数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Code: http.StatusOK, Message: "ok", Data: data})
}

// Error 以状态码作为业务码返回错误并中止后续处理
// message 为空时使用该状态码的默认文案
func Error(c *gin.Context, status int, message string) {
	if message == "" {
		message = defaultMessages[status]
	}
	c.AbortWithStatusJSON(status, Response{Code: status, Message: message})
}

func BadRequest(c *gin.Context, message string) { Error(c, http.StatusBadRequest, message) }

func Unauthorized(c *gin.Context, message string) { Error(c, http.StatusUnauthorized, message) }

func Conflict(c *gin.Context, message string) { Error(c, http.StatusConflict, message) }

func TooManyRequests(c *gin.Context) { Error(c, http.StatusTooManyRequests, "") }

func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
