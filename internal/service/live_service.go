package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/token"

	"gorm.io/gorm"
)

// LiveService 接口定义了实时转写镜像的业务操作。
// 浏览器在通话期间通过 WebSocket 把每轮发言实时推送上来，
// 结束时若客户端没有上报完整转写，镜像就是第一顺位的兜底来源。
type LiveService interface {
	// IssueWsToken 为某次会话签发一个一次性的 WebSocket 连接令牌。
	IssueWsToken(ctx context.Context, user *model.User, conversationID uint) (string, error)
	// Attach 消费令牌，返回其绑定的用户与会话。
	Attach(ctx context.Context, wsToken string) (userID, conversationID uint, err error)
	// RecordTurn 把一轮发言写入会话的实时镜像。
	RecordTurn(ctx context.Context, conversationID uint, turn model.TranscriptTurn) error
}

type liveService struct {
	conversationRepo repository.ConversationRepository
	liveRepo         repository.LiveSessionRepository
}

// NewLiveService 创建一个新的 LiveService 实例。
func NewLiveService(conversationRepo repository.ConversationRepository, liveRepo repository.LiveSessionRepository) LiveService {
	return &liveService{conversationRepo: conversationRepo, liveRepo: liveRepo}
}

// IssueWsToken 签发一次性连接令牌。
// WebSocket 握手带不了 Authorization 头，所以用 Redis 里的短时效令牌换连接。
func (s *liveService) IssueWsToken(ctx context.Context, user *model.User, conversationID uint) (string, error) {
	if _, err := s.conversationRepo.FindByIDAndUser(conversationID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}

	wsToken := token.GenerateRandomString(32)
	if err := s.liveRepo.SaveWsToken(ctx, wsToken, user.ID, conversationID); err != nil {
		return "", err
	}
	return wsToken, nil
}

// Attach 消费令牌。GetDel 语义保证同一令牌只能换一条连接。
func (s *liveService) Attach(ctx context.Context, wsToken string) (uint, uint, error) {
	return s.liveRepo.ConsumeWsToken(ctx, wsToken)
}

// RecordTurn 追加一轮发言到镜像。
func (s *liveService) RecordTurn(ctx context.Context, conversationID uint, turn model.TranscriptTurn) error {
	return s.liveRepo.AppendTurn(ctx, conversationID, turn)
}
