package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// AuthHandler 负责刷新 token。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RefreshTokenRequest 定义了刷新 token API 的请求体结构。
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken 用 refresh token 换取新的一对 token。
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "refreshToken is required")
		return
	}
	access, refresh, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Warnf("RefreshToken: failed to refresh token, error: %v", err)
		respondFail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	respondOK(c, "Token refreshed successfully", gin.H{"token": access, "refreshToken": refresh})
}
