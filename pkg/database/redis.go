package database

import (
	"context"
	"fmt"
	"people_api/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RDB 全局 Redis 客户端，未配置 Redis 时为 nil。
var RDB *redis.Client

func InitRedis(addr, password string, db int) error {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis: %w", err)
	}

	RDB = client
	log.Info("Redis client connected successfully")
	return nil
}
