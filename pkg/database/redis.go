package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"medimate-go/internal/config"
	"medimate-go/pkg/log"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接，连不上直接退出。
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}
	log.Infow("Redis client connected", "addr", cfg.Addr, "db", cfg.DB)
}
