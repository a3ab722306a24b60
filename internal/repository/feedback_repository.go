// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"salescoach-go/internal/model"

	"gorm.io/gorm"
)

// FeedbackRepository 接口定义了反馈数据的持久化操作。
type FeedbackRepository interface {
	Create(feedback *model.Feedback) error
	FindByConversationID(conversationID uint) (*model.Feedback, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建一个新的 FeedbackRepository 实例。
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create 在数据库中创建一个新的反馈记录。
func (r *feedbackRepository) Create(feedback *model.Feedback) error {
	return r.db.Create(feedback).Error
}

// FindByConversationID 查找某次会话的反馈。
func (r *feedbackRepository) FindByConversationID(conversationID uint) (*model.Feedback, error) {
	var feedback model.Feedback
	err := r.db.Where("conversation_id = ?", conversationID).First(&feedback).Error
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
