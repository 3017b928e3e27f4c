package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"medimate-go/internal/model"
	"medimate-go/internal/service"
	"medimate-go/pkg/log"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatHandler 负责聊天提交，包括 REST 接口与 WebSocket 连接。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService) *ChatHandler {
	return &ChatHandler{chatService: chatService, userService: userService}
}

// SendMessageRequest 是聊天提交的请求体，WebSocket 的 JSON 帧使用同样的结构。
type SendMessageRequest struct {
	Content string `json:"content"`
}

// socketFrame 是服务端推送的帧。
type socketFrame struct {
	Type    string                `json:"type"`
	Data    *service.SubmitResult `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
}

// SendMessage 提交一条聊天消息。空白消息静默忽略，返回 204。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SendMessage: invalid payload, error: %v", err)
		respondFail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user := currentUser(c)
	result, err := h.chatService.Submit(c.Request.Context(), user.ID, req.Content)
	if errors.Is(err, service.ErrEmptyMessage) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		respondError(c, "chat submit", err)
		return
	}
	respondOK(c, "success", result)
}

// GetWebsocketToken 签发一次性的 WebSocket 连接票据。
func (h *ChatHandler) GetWebsocketToken(c *gin.Context) {
	ticket, err := h.userService.IssueSocketTicket(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, "issue socket ticket", err)
		return
	}
	respondOK(c, "success", gin.H{"token": ticket, "expiresIn": int(service.SocketTicketTTL.Seconds())})
}

// Handle 处理一个传入的 WebSocket 连接。路径参数是 GetWebsocketToken 签发的票据。
func (h *ChatHandler) Handle(c *gin.Context) {
	user, err := h.userService.RedeemSocketTicket(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondFail(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()
	log.Infow("websocket connected", "user_id", user.ID)

	s := &chatSession{conn: conn, user: user, chat: h.chatService}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer func() {
		cancel()
		s.wg.Wait()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("read from websocket failed: %v", err)
			}
			return
		}
		content := frameContent(message)
		if strings.TrimSpace(content) == "" {
			continue
		}
		// 每条提交独立运行，回复的先后由序号保证。
		s.wg.Add(1)
		go s.submit(ctx, content)
	}
}

// chatSession 维护单个连接上的并发写。
type chatSession struct {
	conn *websocket.Conn
	user *model.User
	chat service.ChatService
	mu   sync.Mutex
	wg   sync.WaitGroup
}

func (s *chatSession) submit(ctx context.Context, content string) {
	defer s.wg.Done()
	result, err := s.chat.Submit(ctx, s.user.ID, content)
	if errors.Is(err, service.ErrEmptyMessage) {
		return
	}
	if err != nil {
		log.Errorw("chat submit failed", "user_id", s.user.ID, "error", err)
		s.write(socketFrame{Type: "error", Message: "internal server error"})
		return
	}
	s.write(socketFrame{Type: "result", Data: result})
}

func (s *chatSession) write(frame socketFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("write to websocket failed: %v", err)
	}
}

// frameContent 兼容纯文本帧与 {"content": "..."} 形式的 JSON 帧。
func frameContent(message []byte) string {
	if len(message) > 0 && message[0] == '{' {
		var req SendMessageRequest
		if err := json.Unmarshal(message, &req); err == nil {
			return req.Content
		}
	}
	return string(message)
}
