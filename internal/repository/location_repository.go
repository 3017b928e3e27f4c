package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"medimate-go/internal/location"
)

// LocationRepository 存取用户的位置上下文。
type LocationRepository interface {
	// Get 返回当前位置上下文，没有记录时返回 idle 状态。
	Get(ctx context.Context, userID uint) (location.Context, error)
	Save(ctx context.Context, userID uint, lc location.Context) error
}

type redisLocationRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewLocationRepository(redisClient *redis.Client, ttl time.Duration) LocationRepository {
	return &redisLocationRepository{redisClient: redisClient, ttl: ttl}
}

func locationKey(userID uint) string {
	return fmt.Sprintf("user:%d:location", userID)
}

func (r *redisLocationRepository) Get(ctx context.Context, userID uint) (location.Context, error) {
	data, err := r.redisClient.Get(ctx, locationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return location.New(), nil
	}
	if err != nil {
		return location.Context{}, fmt.Errorf("failed to get location: %w", err)
	}
	var lc location.Context
	if err := json.Unmarshal(data, &lc); err != nil {
		return location.Context{}, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	return lc, nil
}

func (r *redisLocationRepository) Save(ctx context.Context, userID uint, lc location.Context) error {
	data, err := json.Marshal(lc)
	if err != nil {
		return err
	}
	return r.redisClient.Set(ctx, locationKey(userID), data, r.ttl).Err()
}
