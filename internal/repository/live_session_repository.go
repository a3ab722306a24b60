// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"salescoach-go/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

// LiveSessionRepository 定义了实时会话期间的易失状态操作（Redis）。
// 覆盖三类状态：WebSocket 一次性令牌、实时转写镜像、首次开通代理的互斥锁。
type LiveSessionRepository interface {
	// SaveWsToken 保存一个一次性的 WebSocket 连接令牌。
	SaveWsToken(ctx context.Context, token string, userID, conversationID uint) error
	// ConsumeWsToken 取出并删除令牌，返回其绑定的用户与会话。
	ConsumeWsToken(ctx context.Context, token string) (userID, conversationID uint, err error)
	// AppendTurn 将一轮发言追加到会话的实时转写镜像。
	AppendTurn(ctx context.Context, conversationID uint, turn model.TranscriptTurn) error
	// GetTurns 读取会话的实时转写镜像（按追加顺序）。
	GetTurns(ctx context.Context, conversationID uint) ([]model.TranscriptTurn, error)
	// ClearTurns 会话结束后清理镜像。
	ClearTurns(ctx context.Context, conversationID uint) error
	// AcquireProvisionLock 获取某用户首次开通代理的互斥锁。
	AcquireProvisionLock(ctx context.Context, userID uint) (bool, error)
	// ReleaseProvisionLock 释放互斥锁。
	ReleaseProvisionLock(ctx context.Context, userID uint) error
}

type redisLiveSessionRepository struct {
	redisClient *redis.Client
	bufferTTL   time.Duration
}

// NewLiveSessionRepository 创建一个新的 LiveSessionRepository 实例。
func NewLiveSessionRepository(redisClient *redis.Client, bufferTTL time.Duration) LiveSessionRepository {
	if bufferTTL <= 0 {
		bufferTTL = 24 * time.Hour
	}
	return &redisLiveSessionRepository{redisClient: redisClient, bufferTTL: bufferTTL}
}

type wsTokenPayload struct {
	UserID         uint `json:"user_id"`
	ConversationID uint `json:"conversation_id"`
}

// SaveWsToken 保存一次性令牌，5 分钟内有效。
func (r *redisLiveSessionRepository) SaveWsToken(ctx context.Context, token string, userID, conversationID uint) error {
	payload, err := json.Marshal(wsTokenPayload{UserID: userID, ConversationID: conversationID})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("live:ws_token:%s", token)
	if err := r.redisClient.Set(ctx, key, payload, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to save ws token: %w", err)
	}
	return nil
}

// ConsumeWsToken 取出并删除令牌（GetDel 保证只能使用一次）。
func (r *redisLiveSessionRepository) ConsumeWsToken(ctx context.Context, token string) (uint, uint, error) {
	key := fmt.Sprintf("live:ws_token:%s", token)
	data, err := r.redisClient.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return 0, 0, fmt.Errorf("ws token inconnu ou expiré")
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to consume ws token: %w", err)
	}
	var payload wsTokenPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return 0, 0, fmt.Errorf("failed to unmarshal ws token: %w", err)
	}
	return payload.UserID, payload.ConversationID, nil
}

// AppendTurn 追加一轮发言到镜像列表（RPUSH 保持到达顺序）。
func (r *redisLiveSessionRepository) AppendTurn(ctx context.Context, conversationID uint, turn model.TranscriptTurn) error {
	turnBytes, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript turn: %w", err)
	}
	key := fmt.Sprintf("live:transcript:%d", conversationID)
	if err := r.redisClient.RPush(ctx, key, turnBytes).Err(); err != nil {
		return fmt.Errorf("failed to append transcript turn: %w", err)
	}
	return r.redisClient.Expire(ctx, key, r.bufferTTL).Err()
}

// GetTurns 读取镜像列表的全部内容。
func (r *redisLiveSessionRepository) GetTurns(ctx context.Context, conversationID uint) ([]model.TranscriptTurn, error) {
	key := fmt.Sprintf("live:transcript:%d", conversationID)
	items, err := r.redisClient.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return []model.TranscriptTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read live transcript: %w", err)
	}
	turns := make([]model.TranscriptTurn, 0, len(items))
	for _, item := range items {
		var turn model.TranscriptTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			// 单条损坏不应丢弃整个镜像
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// ClearTurns 删除镜像列表。
func (r *redisLiveSessionRepository) ClearTurns(ctx context.Context, conversationID uint) error {
	return r.redisClient.Del(ctx, fmt.Sprintf("live:transcript:%d", conversationID)).Err()
}

// AcquireProvisionLock 以 SETNX 语义获取互斥锁，30 秒自动过期防止死锁。
func (r *redisLiveSessionRepository) AcquireProvisionLock(ctx context.Context, userID uint) (bool, error) {
	key := fmt.Sprintf("agent:provision:lock:%d", userID)
	ok, err := r.redisClient.SetNX(ctx, key, "1", 30*time.Second).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire provision lock: %w", err)
	}
	return ok, nil
}

// ReleaseProvisionLock 释放互斥锁。
func (r *redisLiveSessionRepository) ReleaseProvisionLock(ctx context.Context, userID uint) error {
	return r.redisClient.Del(ctx, fmt.Sprintf("agent:provision:lock:%d", userID)).Err()
}
