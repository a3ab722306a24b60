package database

import (
	"context"
	"salescoach-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端。
// Redis 承载四类状态：登出黑名单、开通互斥锁、实时转写镜像、WebSocket 一次性令牌。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis 连接失败", err)
	}

	log.Info("[Redis] 客户端连接成功")
}
