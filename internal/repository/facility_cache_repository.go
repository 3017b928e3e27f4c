package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"medimate-go/internal/model"
)

// FacilityCacheRepository 缓存附近机构的查询结果。
type FacilityCacheRepository interface {
	Get(ctx context.Context, key string) ([]model.Facility, bool, error)
	Set(ctx context.Context, key string, facilities []model.Facility) error
}

type redisFacilityCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewFacilityCacheRepository(redisClient *redis.Client, ttl time.Duration) FacilityCacheRepository {
	return &redisFacilityCache{redisClient: redisClient, ttl: ttl}
}

// FacilityCacheKey 按三位小数（约 100 米）取整坐标，让相邻位置命中同一缓存。
func FacilityCacheKey(lat, lng float64, category string, radius int) string {
	return fmt.Sprintf("facilities:%.3f:%.3f:%s:%d", lat, lng, category, radius)
}

func (r *redisFacilityCache) Get(ctx context.Context, key string) ([]model.Facility, bool, error) {
	data, err := r.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []model.Facility
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (r *redisFacilityCache) Set(ctx context.Context, key string, facilities []model.Facility) error {
	data, err := json.Marshal(facilities)
	if err != nil {
		return err
	}
	return r.redisClient.Set(ctx, key, data, r.ttl).Err()
}
