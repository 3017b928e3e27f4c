// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/location"
	"medimate-go/internal/model"
	"medimate-go/internal/service"
	"medimate-go/pkg/log"
	"medimate-go/pkg/token"
)

// 响应统一为 {code, message, data}。
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"code": http.StatusCreated, "message": message, "data": data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// statusFor 把业务层的哨兵错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrDateInPast),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, location.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrPolicyNotFound),
		errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrNotCancellable),
		errors.Is(err, location.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrLocationUnavailable):
		return http.StatusPreconditionFailed
	case errors.Is(err, service.ErrDirectoryNotReady):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError 写出错误响应。500 只返回通用信息，详细错误写日志。
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorw(op+" failed", "path", c.FullPath(), "error", err)
		respondFail(c, status, "internal server error")
		return
	}
	log.Warnw(op+" rejected", "path", c.FullPath(), "status", status, "error", err)
	respondFail(c, status, err.Error())
}

// currentUser 取出 AuthMiddleware 写入的用户。
func currentUser(c *gin.Context) *model.User {
	return c.MustGet("user").(*model.User)
}
