package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"medimate-go/internal/model"
	"medimate-go/internal/repository"
	"medimate-go/internal/triage"
)

// ConversationService 定义了会话日志的业务接口。
type ConversationService interface {
	// CurrentConversation 返回当前会话 ID，新会话会先写入问候语。
	CurrentConversation(ctx context.Context, userID uint) (string, error)
	GetConversationHistory(ctx context.Context, userID uint) ([]model.ChatMessage, error)
	// ResetConversation 开启新会话，返回只含问候语的新日志。
	ResetConversation(ctx context.Context, userID uint) ([]model.ChatMessage, error)
}

type conversationService struct {
	repo repository.ConversationRepository
	now  func() time.Time
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo, now: time.Now}
}

func (s *conversationService) CurrentConversation(ctx context.Context, userID uint) (string, error) {
	id, created, err := s.repo.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return "", err
	}
	if created {
		if err := s.repo.Append(ctx, id, s.greeting()); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (s *conversationService) GetConversationHistory(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	id, err := s.CurrentConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetConversationHistory(ctx, id)
}

func (s *conversationService) ResetConversation(ctx context.Context, userID uint) ([]model.ChatMessage, error) {
	id, err := s.repo.RotateConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	greeting := s.greeting()
	if err := s.repo.Append(ctx, id, greeting); err != nil {
		return nil, err
	}
	return []model.ChatMessage{greeting}, nil
}

func (s *conversationService) greeting() model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Kind:      model.KindGreeting,
		Content:   triage.GreetingMessage,
		Timestamp: s.now(),
	}
}
