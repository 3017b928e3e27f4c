package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/internal/triage"
	"medimate-go/pkg/llm"
	"medimate-go/pkg/log"
)

// SubmitResult 是一次提交的结果。
type SubmitResult struct {
	Seq int64 `json:"seq"`
	// Messages 是本次写入日志的消息（用户消息，以及未过期时的助手回复）。
	Messages     []model.ChatMessage `json:"messages"`
	Notification *model.Notification `json:"notification,omitempty"`
	Emergency    bool                `json:"emergency"`
	// Stale 表示助手回复因更新的提交已被应用而丢弃。
	Stale bool `json:"stale"`
}

// ChatService 定义了聊天提交的接口。
type ChatService interface {
	// Submit 记录用户消息并生成助手回复。空白消息返回 ErrEmptyMessage 且不产生任何副作用。
	// 外部助手调用失败不会返回错误，而是写入兜底回复并附带一次性通知。
	Submit(ctx context.Context, userID uint, text string) (*SubmitResult, error)
}

type chatService struct {
	gate             *triage.Gate
	llmClient        llm.Client
	conversations    ConversationService
	conversationRepo repository.ConversationRepository
	metrics          *triage.Metrics
	now              func() time.Time
}

// NewChatService 创建一个新的 ChatService 实例。metrics 可以为 nil。
func NewChatService(gate *triage.Gate, llmClient llm.Client, conversations ConversationService,
	conversationRepo repository.ConversationRepository, metrics *triage.Metrics) ChatService {
	return &chatService{
		gate:             gate,
		llmClient:        llmClient,
		conversations:    conversations,
		conversationRepo: conversationRepo,
		metrics:          metrics,
		now:              time.Now,
	}
}

func (s *chatService) Submit(ctx context.Context, userID uint, text string) (*SubmitResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warnw("ignored empty chat message", "user_id", userID)
		return nil, ErrEmptyMessage
	}

	convID, err := s.conversations.CurrentConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	seq, err := s.conversationRepo.NextSequence(ctx, convID)
	if err != nil {
		return nil, err
	}

	userMsg := s.message(model.RoleUser, model.KindChat, text, seq)
	if err := s.conversationRepo.Append(ctx, convID, userMsg); err != nil {
		return nil, err
	}
	result := &SubmitResult{Seq: seq, Messages: []model.ChatMessage{userMsg}}

	var reply model.ChatMessage
	outcome := triage.OutcomeForwarded
	if kw, ok := s.gate.MatchedKeyword(text); ok {
		// 命中紧急关键词，不调用外部助手
		log.Infow("emergency keyword matched", "user_id", userID, "seq", seq, "keyword", kw)
		reply = s.message(model.RoleAssistant, model.KindEmergency, triage.EmergencyMessage, seq)
		result.Emergency = true
		outcome = triage.OutcomeEmergency
	} else {
		answer, callErr := s.callAssistant(ctx, text)
		if callErr != nil {
			log.Warnw("assistant call failed, replying with fallback", "user_id", userID, "seq", seq, "error", callErr)
			reply = s.message(model.RoleAssistant, model.KindFallback, triage.FallbackMessage, seq)
			result.Notification = &model.Notification{
				Title:       triage.NotificationTitle,
				Description: triage.NotificationDescription,
				Variant:     "destructive",
			}
			outcome = triage.OutcomeFallback
		} else {
			reply = s.message(model.RoleAssistant, model.KindChat, answer, seq)
		}
	}

	// 请求被取消时仍然落盘已经得到的回复
	applied, err := s.conversationRepo.AppendIfLatest(context.WithoutCancel(ctx), convID, reply)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Infow("discarded stale assistant reply", "user_id", userID, "seq", seq)
		result.Stale = true
		result.Notification = nil
		s.metrics.Observe(triage.OutcomeStale)
		return result, nil
	}
	result.Messages = append(result.Messages, reply)
	s.metrics.Observe(outcome)
	return result, nil
}

// callAssistant 调用一次外部助手，不重试。
func (s *chatService) callAssistant(ctx context.Context, text string) (string, error) {
	start := time.Now()
	answer, err := s.llmClient.Generate(ctx, triage.BuildPrompt(text))
	s.metrics.ObserveCall(time.Since(start), err)
	return answer, err
}

func (s *chatService) message(role, kind, content string, seq int64) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Seq:       seq,
		Timestamp: s.now(),
	}
}
