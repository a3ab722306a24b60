// Package service 包含了应用的业务逻辑层。
package service

import (
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Firstname string          `json:"firstname"`
	Lastname  string          `json:"lastname"`
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	Credits   int             `json:"credits"`
	// HasRemoteAgent 表示语音代理是否已开通。
	HasRemoteAgent bool            `json:"hasRemoteAgent"`
	CreatedAt      model.LocalTime `json:"createdAt"`
}

// ConversationListResponse 定义了管理端会话列表 API 的响应结构。
type ConversationListResponse struct {
	Content       []ConversationSummary `json:"content"`
	TotalElements int64                 `json:"totalElements"`
	TotalPages    int                   `json:"totalPages"`
	Size          int                   `json:"size"`
	Number        int                   `json:"number"`
}

// ConversationSummary 是管理端会话列表项。
type ConversationSummary struct {
	ConversationID  uint            `json:"conversationId"`
	UserID          uint            `json:"userId"`
	AgentName       string          `json:"agentName"`
	ProductName     string          `json:"productName"`
	CallType        string          `json:"callType"`
	Goal            string          `json:"goal"`
	Started         bool            `json:"started"`
	HasFeedback     bool            `json:"hasFeedback"`
	DurationSeconds int             `json:"durationSeconds"`
	CreatedAt       model.LocalTime `json:"createdAt"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	ListConversations(page, size int) (*ConversationListResponse, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo         repository.UserRepository
	conversationRepo repository.ConversationRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, conversationRepo repository.ConversationRepository) AdminService {
	return &adminService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
	}
}

// ListUsers 以分页的形式返回用户列表
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size
	users, total, err := s.userRepo.FindWithPagination(offset, size)
	if err != nil {
		return nil, err
	}

	userResponses := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		userResponses = append(userResponses, UserDetailResponse{
			UserID:         u.ID,
			Username:       u.Username,
			Firstname:      u.Firstname,
			Lastname:       u.Lastname,
			Email:          u.Email,
			Role:           u.Role,
			Credits:        u.Credits,
			HasRemoteAgent: u.RemoteAgentID != "",
			CreatedAt:      model.LocalTime(u.CreatedAt),
		})
	}

	return &UserListResponse{
		Content:       userResponses,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

// ListConversations 以分页的形式返回全量会话列表（跨用户）。
func (s *adminService) ListConversations(page, size int) (*ConversationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size
	conversations, total, err := s.conversationRepo.FindWithPagination(offset, size)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summary := ConversationSummary{
			ConversationID:  c.ID,
			UserID:          c.UserID,
			CallType:        c.CallType,
			Goal:            c.Goal,
			Started:         c.Started(),
			HasFeedback:     c.FeedbackID != nil,
			DurationSeconds: c.DurationSeconds,
			CreatedAt:       model.LocalTime(c.CreatedAt),
		}
		if c.Agent != nil {
			summary.AgentName = c.Agent.Name
		}
		if c.Product != nil {
			summary.ProductName = c.Product.Name
		}
		summaries = append(summaries, summary)
	}

	return &ConversationListResponse{
		Content:       summaries,
		TotalElements: total,
		TotalPages:    totalPages(total, size),
		Size:          size,
		Number:        page,
	}, nil
}

func totalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (int(total) + size - 1) / size
}
