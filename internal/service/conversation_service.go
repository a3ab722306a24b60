package service

import (
	"errors"
	"fmt"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/storage"
	"time"

	"gorm.io/gorm"
)

// CreateConversationRequest 是创建模拟场景接口的入参。
type CreateConversationRequest struct {
	AgentID   uint              `json:"agentId" binding:"required"`
	ProductID uint              `json:"productId" binding:"required"`
	CallType  string            `json:"callType" binding:"required,oneof=cold_call discovery_meeting product_demo closing_call follow_up_call"`
	Goal      string            `json:"goal" binding:"required"`
	Context   model.CallContext `json:"context"`
}

// ConversationService 接口定义了模拟场景记录的业务操作。
type ConversationService interface {
	Create(userID uint, req CreateConversationRequest) (*model.Conversation, error)
	List(userID uint) ([]model.Conversation, error)
	// Get 连带画像、产品与反馈返回单条会话。
	Get(conversationID, userID uint) (*model.Conversation, error)
	// ArchiveDownloadURL 为已归档的转写对象生成一个短时效下载地址。
	ArchiveDownloadURL(conversationID, userID uint) (string, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	agentRepo        repository.AgentRepository
	productRepo      repository.ProductRepository
	archiveBucket    string
}

// NewConversationService 创建一个新的 ConversationService 实例。
func NewConversationService(
	conversationRepo repository.ConversationRepository,
	agentRepo repository.AgentRepository,
	productRepo repository.ProductRepository,
	archiveBucket string,
) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		agentRepo:        agentRepo,
		productRepo:      productRepo,
		archiveBucket:    archiveBucket,
	}
}

// Create 创建一条新的模拟场景记录。
// 引用的画像必须对用户可见，产品必须归用户所有。
func (s *conversationService) Create(userID uint, req CreateConversationRequest) (*model.Conversation, error) {
	if _, err := s.agentRepo.FindByIDVisible(req.AgentID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.productRepo.FindByIDAndUser(req.ProductID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	conversation := &model.Conversation{
		UserID:    userID,
		AgentID:   req.AgentID,
		ProductID: req.ProductID,
		CallType:  req.CallType,
		Goal:      req.Goal,
		Context:   req.Context,
	}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// List 返回用户的会话列表（最近优先）。
func (s *conversationService) List(userID uint) ([]model.Conversation, error) {
	return s.conversationRepo.FindByUser(userID)
}

// Get 返回单条会话详情。
func (s *conversationService) Get(conversationID, userID uint) (*model.Conversation, error) {
	conversation, err := s.conversationRepo.FindByIDAndUserWithJoins(conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return conversation, nil
}

// ArchiveDownloadURL 生成归档转写对象的预签名下载地址。
// 只有会话已收口（转写非空）时对象才存在，否则按未找到处理。
func (s *conversationService) ArchiveDownloadURL(conversationID, userID uint) (string, error) {
	conversation, err := s.conversationRepo.FindByIDAndUser(conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	if len(conversation.Transcript) == 0 {
		return "", apperr.ErrNotFound
	}
	objectName := fmt.Sprintf("transcripts/%d.json", conversationID)
	return storage.GetPresignedURL(s.archiveBucket, objectName, 15*time.Minute)
}
