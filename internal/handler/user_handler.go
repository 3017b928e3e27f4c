package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// UserHandler 负责处理注册、登录与登出。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CredentialsRequest 是注册与登录共用的请求体。
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := h.userService.Register(req.Username, req.Password)
	if err != nil {
		respondError(c, "register", err)
		return
	}
	respondCreated(c, "User registered successfully", gin.H{"id": user.ID, "username": user.Username})
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "username and password are required")
		return
	}
	accessToken, refreshToken, err := h.userService.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	log.Infof("User '%s' logged in", req.Username)
	respondOK(c, "Login successful", gin.H{"token": accessToken, "refreshToken": refreshToken})
}

// GetProfile 返回当前登录用户。
func (h *UserHandler) GetProfile(c *gin.Context) {
	respondOK(c, "success", currentUser(c))
}

// LogoutRequest 是登出的可选请求体，携带 refresh token 时一并吊销。
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout 把当前 access token 加入黑名单。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := h.userService.Logout(c.Request.Context(), tokenString, req.RefreshToken); err != nil {
		respondError(c, "logout", err)
		return
	}
	respondOK(c, "Logged out", nil)
}
