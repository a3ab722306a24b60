package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/log"
	"salescoach-go/pkg/voice"

	"gorm.io/gorm"
)

// SessionCredential 是前端建立语音连接所需的凭证。
// 未配置服务商凭证时退化为 directUse 模式，由前端直接以 agentId 连接。
type SessionCredential struct {
	SignedURL string `json:"signedUrl,omitempty"`
	AgentID   string `json:"agentId"`
	DirectUse bool   `json:"directUse,omitempty"`
}

// SessionService 接口定义了会话连接凭证的签发操作。
type SessionService interface {
	// IssueCredential 为已启动的会话签发一个短时效连接凭证。
	IssueCredential(ctx context.Context, user *model.User, conversationID uint) (*SessionCredential, error)
}

type sessionService struct {
	conversationRepo repository.ConversationRepository
	voiceClient      voice.Client
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(conversationRepo repository.ConversationRepository, voiceClient voice.Client) SessionService {
	return &sessionService{conversationRepo: conversationRepo, voiceClient: voiceClient}
}

// IssueCredential 签发连接凭证。
// 签名地址时效很短且通常单次有效，这里不做自动重试，失败直接上抛。
func (s *sessionService) IssueCredential(ctx context.Context, user *model.User, conversationID uint) (*SessionCredential, error) {
	conversation, err := s.conversationRepo.FindByIDAndUser(conversationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	// 优先用会话上绑定的已配置代理；未启动的会话退回用户级代理
	agentID := conversation.RemoteSessionID
	if agentID == "" {
		agentID = user.RemoteAgentID
	}
	if agentID == "" {
		// 代理未开通属于配置错误，凭证签发不负责补救
		return nil, apperr.ErrPrecondition
	}

	if !s.voiceClient.HasAPIKey() {
		log.Warnf("[Session] 未配置服务商凭证，降级为 directUse 模式, conversationID: %d", conversationID)
		return &SessionCredential{AgentID: agentID, DirectUse: true}, nil
	}

	signedURL, err := s.voiceClient.GetSignedURL(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return &SessionCredential{SignedURL: signedURL, AgentID: agentID}, nil
}
