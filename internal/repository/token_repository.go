package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenRepository 维护已登出 token 的黑名单，以及 WebSocket 一次性票据。
type TokenRepository interface {
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	SaveSocketTicket(ctx context.Context, ticket string, userID uint, ttl time.Duration) error
	// TakeSocketTicket 读取并删除票据，票据不存在或已使用时返回 ErrNotFound。
	TakeSocketTicket(ctx context.Context, ticket string) (uint, error)
}

type redisTokenRepository struct {
	redisClient *redis.Client
}

func NewTokenRepository(redisClient *redis.Client) TokenRepository {
	return &redisTokenRepository{redisClient: redisClient}
}

// Blacklist 以 token 的剩余有效期作为 key 的过期时间。
func (r *redisTokenRepository) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.redisClient.Set(ctx, "blacklist:"+token, "true", ttl).Err()
}

func (r *redisTokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	err := r.redisClient.Get(ctx, "blacklist:"+token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func socketTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

func (r *redisTokenRepository) SaveSocketTicket(ctx context.Context, ticket string, userID uint, ttl time.Duration) error {
	return r.redisClient.Set(ctx, socketTicketKey(ticket), userID, ttl).Err()
}

func (r *redisTokenRepository) TakeSocketTicket(ctx context.Context, ticket string) (uint, error) {
	id, err := r.redisClient.GetDel(ctx, socketTicketKey(ticket)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
