// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// 消息类别，区分助手消息的来源。
const (
	KindChat      = "chat"
	KindGreeting  = "greeting"
	KindEmergency = "emergency"
	KindFallback  = "fallback"
)

// ChatMessage 代表会话日志中的单条消息，创建后不可修改，只追加。
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" 或 "assistant"
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Seq       int64     `json:"seq"` // 产生该消息的提交序号，问候语为 0
	Timestamp time.Time `json:"timestamp"`
}

// Notification 是一次性的前端提示（toast），不写入会话日志。
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}
