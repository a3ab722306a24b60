package service

import (
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"

	"gorm.io/gorm"
)

// AgentRequest 是创建/更新画像接口的入参。
type AgentRequest struct {
	Name        string            `json:"name" binding:"required"`
	JobTitle    string            `json:"jobTitle"`
	Difficulty  string            `json:"difficulty" binding:"omitempty,oneof=facile moyen difficile"`
	Personality model.Personality `json:"personality"`
	VoiceID     string            `json:"voiceId"`
	PictureURL  string            `json:"pictureUrl"`
}

// AgentService 接口定义了客户画像的业务操作。
type AgentService interface {
	List(userID uint) ([]model.Agent, error)
	Get(agentID, userID uint) (*model.Agent, error)
	Create(userID uint, req AgentRequest) (*model.Agent, error)
	Update(agentID, userID uint, req AgentRequest) (*model.Agent, error)
	Delete(agentID, userID uint) error
}

type agentService struct {
	agentRepo repository.AgentRepository
}

// NewAgentService 创建一个新的 AgentService 实例。
func NewAgentService(agentRepo repository.AgentRepository) AgentService {
	return &agentService{agentRepo: agentRepo}
}

// List 返回用户可见的画像（私有 + 共享）。
func (s *agentService) List(userID uint) ([]model.Agent, error) {
	return s.agentRepo.FindVisible(userID)
}

// Get 返回单个对该用户可见的画像。
func (s *agentService) Get(agentID, userID uint) (*model.Agent, error) {
	agent, err := s.agentRepo.FindByIDVisible(agentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return agent, nil
}

// Create 创建一个用户私有的画像。
func (s *agentService) Create(userID uint, req AgentRequest) (*model.Agent, error) {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	agent := &model.Agent{
		UserID:      &userID,
		Name:        req.Name,
		JobTitle:    req.JobTitle,
		Difficulty:  difficulty,
		Personality: req.Personality,
		VoiceID:     req.VoiceID,
		PictureURL:  req.PictureURL,
	}
	if err := s.agentRepo.Create(agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Update 更新用户私有的画像。共享画像只读。
func (s *agentService) Update(agentID, userID uint, req AgentRequest) (*model.Agent, error) {
	agent, err := s.agentRepo.FindByIDVisible(agentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if agent.UserID == nil || *agent.UserID != userID {
		// 共享画像不属于任何用户，不可修改
		return nil, apperr.ErrNotFound
	}

	agent.Name = req.Name
	agent.JobTitle = req.JobTitle
	if req.Difficulty != "" {
		agent.Difficulty = req.Difficulty
	}
	agent.Personality = req.Personality
	agent.VoiceID = req.VoiceID
	agent.PictureURL = req.PictureURL
	if err := s.agentRepo.Update(agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// Delete 删除用户私有的画像。
func (s *agentService) Delete(agentID, userID uint) error {
	return s.agentRepo.Delete(agentID, userID)
}
