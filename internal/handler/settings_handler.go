package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

// SettingsHandler 处理个人资料、密码与通知偏好。
type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) GetProfile(c *gin.Context) {
	user, err := h.settingsService.GetProfile(currentUser(c).ID)
	if err != nil {
		respondError(c, "get profile", err)
		return
	}
	respondOK(c, "success", user)
}

func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("UpdateProfile: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.settingsService.UpdateProfile(currentUser(c).ID, req)
	if err != nil {
		respondError(c, "update profile", err)
		return
	}
	respondOK(c, "Profile updated", user)
}

// ChangePassword 修改密码。已签发的 token 在过期前仍然有效。
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var req service.PasswordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("ChangePassword: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.settingsService.ChangePassword(currentUser(c).ID, req); err != nil {
		respondError(c, "change password", err)
		return
	}
	respondOK(c, "Password updated", nil)
}

func (h *SettingsHandler) GetNotifications(c *gin.Context) {
	prefs, err := h.settingsService.GetPreferences(currentUser(c).ID)
	if err != nil {
		respondError(c, "get notification preferences", err)
		return
	}
	respondOK(c, "success", prefs)
}

// UpdateNotifications 只修改请求中出现的开关。
func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	var req service.PreferencesUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("UpdateNotifications: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	prefs, err := h.settingsService.UpdatePreferences(currentUser(c).ID, req)
	if err != nil {
		respondError(c, "update notification preferences", err)
		return
	}
	respondOK(c, "Notification preferences updated", prefs)
}
