// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/log"
	"salescoach-go/pkg/voice"
	"time"

	"gorm.io/gorm"
)

// 首次开通代理时推送的占位提示词，正式提示词在每次启动时按场景覆盖。
const defaultAgentPrompt = "Tu es un assistant commercial professionnel."

// StartSimulationResult 是启动流程的返回结果。
type StartSimulationResult struct {
	ConversationID uint   `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
}

// ProvisionService 接口定义了语音代理的开通与场景配置操作。
type ProvisionService interface {
	// EnsureRemoteAgent 确保用户在服务商侧拥有一个会话代理（懒创建、幂等）。
	EnsureRemoteAgent(ctx context.Context, user *model.User) (string, error)
	// StartSimulation 为一次会话完成代理配置并标记会话已启动。
	StartSimulation(ctx context.Context, user *model.User, conversationID uint) (*StartSimulationResult, error)
}

// provisionService 是 ProvisionService 接口的实现。
type provisionService struct {
	userRepo         repository.UserRepository
	conversationRepo repository.ConversationRepository
	liveRepo         repository.LiveSessionRepository
	voiceClient      voice.Client
	selectVoice      VoiceSelector
	defaultVoiceID   string
	maxDuration      int
}

// NewProvisionService 创建一个新的 ProvisionService 实例。
// selectVoice 为空时使用默认启发式策略。
func NewProvisionService(
	userRepo repository.UserRepository,
	conversationRepo repository.ConversationRepository,
	liveRepo repository.LiveSessionRepository,
	voiceClient voice.Client,
	selectVoice VoiceSelector,
	defaultVoiceID string,
	maxDurationSeconds int,
) ProvisionService {
	if selectVoice == nil {
		selectVoice = DefaultVoiceSelector
	}
	if maxDurationSeconds <= 0 {
		maxDurationSeconds = 1800
	}
	return &provisionService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		liveRepo:         liveRepo,
		voiceClient:      voiceClient,
		selectVoice:      selectVoice,
		defaultVoiceID:   defaultVoiceID,
		maxDuration:      maxDurationSeconds,
	}
}

// EnsureRemoteAgent 确保用户拥有远端代理。
// 幂等性由用户记录上已存储的标识保证，而不是依赖服务商去重；
// 首次创建期间持有 Redis 互斥锁，避免并发请求创建出两个服务商侧代理。
func (s *provisionService) EnsureRemoteAgent(ctx context.Context, user *model.User) (string, error) {
	// 已有标识直接复用，这是幂等守卫
	if user.RemoteAgentID != "" {
		return user.RemoteAgentID, nil
	}

	// 尝试获取互斥锁；拿不到说明另一个请求正在创建，稍等后重读用户记录
	acquired, err := s.liveRepo.AcquireProvisionLock(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("获取开通锁失败: %w", err)
	}
	if !acquired {
		for i := 0; i < 5; i++ {
			time.Sleep(300 * time.Millisecond)
			fresh, err := s.userRepo.FindByID(user.ID)
			if err != nil {
				return "", err
			}
			if fresh.RemoteAgentID != "" {
				user.RemoteAgentID = fresh.RemoteAgentID
				return fresh.RemoteAgentID, nil
			}
		}
		return "", fmt.Errorf("开通代理的并发请求未在预期时间内完成")
	}
	defer func() {
		if err := s.liveRepo.ReleaseProvisionLock(ctx, user.ID); err != nil {
			log.Warnf("[Provision] 释放开通锁失败, userID: %d, error: %v", user.ID, err)
		}
	}()

	// 持锁后再读一次，防止锁获取前的间隙里已有人写入
	fresh, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return "", err
	}
	if fresh.RemoteAgentID != "" {
		user.RemoteAgentID = fresh.RemoteAgentID
		return fresh.RemoteAgentID, nil
	}

	log.Infof("[Provision] 用户尚无远端代理，开始创建, userID: %d", user.ID)
	agentID, err := s.voiceClient.CreateAgent(ctx,
		fmt.Sprintf("Agent_%d", user.ID), s.defaultVoiceID, defaultAgentPrompt)
	if err != nil {
		return "", err
	}

	updated, err := s.userRepo.SetRemoteAgentID(user.ID, agentID)
	if err != nil {
		// 代理已创建但标识没存上：记录标识便于人工回收
		log.Errorf("[Provision] 持久化代理标识失败, userID: %d, agentID: %s, error: %v", user.ID, agentID, err)
		return "", fmt.Errorf("持久化代理标识失败: %w", err)
	}
	if !updated {
		log.Warnf("[Provision] 代理标识已被并发写入, userID: %d, 放弃本次创建的 agentID: %s", user.ID, agentID)
		fresh, err := s.userRepo.FindByID(user.ID)
		if err != nil {
			return "", err
		}
		user.RemoteAgentID = fresh.RemoteAgentID
		return fresh.RemoteAgentID, nil
	}

	user.RemoteAgentID = agentID
	log.Infof("[Provision] 代理创建并绑定成功, userID: %d, agentID: %s", user.ID, agentID)
	return agentID, nil
}

// StartSimulation 执行完整的启动编排。
func (s *provisionService) StartSimulation(ctx context.Context, user *model.User, conversationID uint) (*StartSimulationResult, error) {
	log.Infof("[Provision] 启动模拟会话, userID: %d, conversationID: %d", user.ID, conversationID)

	// 1. 加载会话并校验归属
	conversation, err := s.conversationRepo.FindByIDAndUser(conversationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	// 2. 快速拒绝已启动的会话（权威判定在第 5 步的条件写）
	if conversation.Started() {
		return nil, apperr.ErrConflict
	}

	// 3. 确保远端代理存在
	agentID, err := s.EnsureRemoteAgent(ctx, user)
	if err != nil {
		return nil, err
	}

	// 4. 连带画像与产品重新加载场景数据
	detail, err := s.conversationRepo.FindByIDAndUserWithJoins(conversationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if detail.Agent == nil || detail.Product == nil {
		// 场景配置不完整：画像或产品已被删除
		return nil, apperr.ErrNotFound
	}

	// 5. 先用条件写占住"已启动"守卫。并发双启动时只有一个写入成功，
	// 失败方不会再触发任何服务商调用。
	claimed, err := s.conversationRepo.AssignRemoteSessionID(conversationID, agentID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		log.Warnf("[Provision] 会话已被并发启动, conversationID: %d", conversationID)
		return nil, apperr.ErrConflict
	}

	// 6. 渲染场景提示词并推送代理配置。
	// 此处失败会让会话停留在"已启动但未配置"的终态，需要新建会话重试，
	// 这正是守卫字段想要的语义：同一条会话记录绝不二次启动。
	prompt := BuildPersonaPrompt(detail.Agent, detail)
	voiceID := s.selectVoice(detail.Agent)
	update := voice.AgentUpdate{
		Name:               fmt.Sprintf("%s_%s", detail.Agent.Name, detail.CallType),
		Prompt:             prompt,
		VoiceID:            voiceID,
		MaxDurationSeconds: s.maxDuration,
		Tags:               []string{"sales", detail.CallType, detail.Agent.Difficulty},
	}
	if err := s.voiceClient.UpdateAgent(ctx, agentID, update); err != nil {
		log.Errorf("[Provision] 推送代理配置失败, conversationID: %d, error: %v", conversationID, err)
		return nil, err
	}

	log.Infof("[Provision] 模拟会话配置完成, conversationID: %d, agentID: %s, voiceID: %s",
		conversationID, agentID, voiceID)
	return &StartSimulationResult{ConversationID: conversationID, AgentID: agentID}, nil
}
