package handler

import (
	"github.com/gin-gonic/gin"

	"medimate-go/internal/service"
)

// ConversationHandler 处理与会话日志相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetHistory 返回当前会话的完整日志，新用户会先看到问候语。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	history, err := h.service.GetConversationHistory(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, "get conversation history", err)
		return
	}
	respondOK(c, "success", history)
}

// ResetHistory 开启新会话。
func (h *ConversationHandler) ResetHistory(c *gin.Context) {
	history, err := h.service.ResetConversation(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, "reset conversation", err)
		return
	}
	respondOK(c, "Conversation cleared", history)
}
