// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"medimate-go/internal/model"
)

// ConversationRepository 定义了会话日志的操作接口。日志只追加，不修改。
type ConversationRepository interface {
	// GetOrCreateConversationID 返回用户当前会话 ID，created 表示本次新建。
	GetOrCreateConversationID(ctx context.Context, userID uint) (id string, created bool, err error)
	// RotateConversation 丢弃当前会话并新建一个。
	RotateConversation(ctx context.Context, userID uint) (string, error)
	// NextSequence 为一次提交分配单调递增的序号。
	NextSequence(ctx context.Context, conversationID string) (int64, error)
	Append(ctx context.Context, conversationID string, msg model.ChatMessage) error
	// AppendIfLatest 仅当 msg.Seq 不小于已应用的最新助手回复序号时追加，返回是否追加。
	AppendIfLatest(ctx context.Context, conversationID string, msg model.ChatMessage) (bool, error)
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
}

type redisConversationRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例，ttl 为会话空闲过期时间。
func NewConversationRepository(redisClient *redis.Client, ttl time.Duration) ConversationRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisConversationRepository{redisClient: redisClient, ttl: ttl}
}

func currentConversationKey(userID uint) string {
	return fmt.Sprintf("user:%d:current_conversation", userID)
}

func messagesKey(id string) string { return fmt.Sprintf("conversation:%s:messages", id) }
func seqKey(id string) string      { return fmt.Sprintf("conversation:%s:seq", id) }
func appliedKey(id string) string  { return fmt.Sprintf("conversation:%s:applied", id) }

func (r *redisConversationRepository) GetOrCreateConversationID(ctx context.Context, userID uint) (string, bool, error) {
	key := currentConversationKey(userID)
	convID, err := r.redisClient.Get(ctx, key).Result()
	if err == nil {
		return convID, false, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", false, fmt.Errorf("failed to get conversation id: %w", err)
	}

	// 并发首次访问时只有一个 SETNX 成功，其余读取胜出者的 ID
	candidate := uuid.NewString()
	ok, err := r.redisClient.SetNX(ctx, key, candidate, r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to set conversation id: %w", err)
	}
	if ok {
		return candidate, true, nil
	}
	convID, err = r.redisClient.Get(ctx, key).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to get conversation id: %w", err)
	}
	return convID, false, nil
}

func (r *redisConversationRepository) RotateConversation(ctx context.Context, userID uint) (string, error) {
	key := currentConversationKey(userID)
	old, err := r.redisClient.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to get conversation id: %w", err)
	}

	newID := uuid.NewString()
	pipe := r.redisClient.TxPipeline()
	if old != "" {
		pipe.Del(ctx, messagesKey(old), seqKey(old), appliedKey(old))
	}
	pipe.Set(ctx, key, newID, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to rotate conversation: %w", err)
	}
	return newID, nil
}

func (r *redisConversationRepository) NextSequence(ctx context.Context, conversationID string) (int64, error) {
	key := seqKey(conversationID)
	seq, err := r.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	_ = r.redisClient.Expire(ctx, key, r.ttl).Err()
	return seq, nil
}

func (r *redisConversationRepository) Append(ctx context.Context, conversationID string, msg model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	key := messagesKey(conversationID)
	pipe := r.redisClient.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *redisConversationRepository) AppendIfLatest(ctx context.Context, conversationID string, msg model.ChatMessage) (bool, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("failed to marshal message: %w", err)
	}
	applied := appliedKey(conversationID)
	list := messagesKey(conversationID)

	var appended bool
	txf := func(tx *redis.Tx) error {
		latest, err := tx.Get(ctx, applied).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if msg.Seq < latest {
			appended = false
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, list, data)
			pipe.Expire(ctx, list, r.ttl)
			pipe.Set(ctx, applied, strconv.FormatInt(msg.Seq, 10), r.ttl)
			return nil
		})
		if err == nil {
			appended = true
		}
		return err
	}

	// 乐观锁冲突时重试，冲突只发生在同一会话的并发回复之间
	for i := 0; i < 5; i++ {
		err = r.redisClient.Watch(ctx, txf, applied)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to append reply: %w", err)
		}
		return appended, nil
	}
	return false, fmt.Errorf("failed to append reply: %w", err)
}

func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	raw, err := r.redisClient.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
