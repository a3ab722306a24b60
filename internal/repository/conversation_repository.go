// Package repository 提供了数据访问层的实现。
package repository

import (
	"salescoach-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了模拟会话记录的持久化操作。
type ConversationRepository interface {
	Create(conversation *model.Conversation) error
	FindByIDAndUser(conversationID, userID uint) (*model.Conversation, error)
	// FindByIDAndUserWithJoins 连带预加载画像、产品与反馈。
	FindByIDAndUserWithJoins(conversationID, userID uint) (*model.Conversation, error)
	// FindByIDWithJoins 不做归属过滤，供后台归档管道使用。
	FindByIDWithJoins(conversationID uint) (*model.Conversation, error)
	FindByUser(userID uint) ([]model.Conversation, error)
	// AssignRemoteSessionID 仅在守卫字段为空时写入，返回是否实际写入。
	// 这是"至多启动一次"不变式的唯一实现点：先读后写不防并发，
	// 条件 UPDATE 的受影响行数才是权威判定。
	AssignRemoteSessionID(conversationID uint, sessionID string) (bool, error)
	// SaveTranscript 持久化最终转写与时长。
	SaveTranscript(conversationID uint, transcript model.Transcript, durationSeconds int) error
	// LinkFeedback 将反馈记录回链到会话。
	LinkFeedback(conversationID, feedbackID uint) error
	FindWithPagination(offset, limit int) ([]model.Conversation, int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create 在数据库中创建一个新的会话记录。
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	return r.db.Create(conversation).Error
}

// FindByIDAndUser 按 ID 和归属查找会话。
func (r *conversationRepository) FindByIDAndUser(conversationID, userID uint) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindByIDAndUserWithJoins 按 ID 和归属查找会话并预加载关联对象。
func (r *conversationRepository) FindByIDAndUserWithJoins(conversationID, userID uint) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.Preload("Agent").Preload("Product").Preload("Feedback").
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindByIDWithJoins 按 ID 查找会话并预加载关联对象（无归属过滤）。
func (r *conversationRepository) FindByIDWithJoins(conversationID uint) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.Preload("Agent").Preload("Product").Preload("Feedback").
		First(&conversation, conversationID).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// FindByUser 返回用户的会话列表（最近优先）。
func (r *conversationRepository) FindByUser(userID uint) ([]model.Conversation, error) {
	var conversations []model.Conversation
	err := r.db.Preload("Agent").Preload("Product").Preload("Feedback").
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&conversations).Error
	return conversations, err
}

// AssignRemoteSessionID 条件写入守卫字段。
func (r *conversationRepository) AssignRemoteSessionID(conversationID uint, sessionID string) (bool, error) {
	result := r.db.Model(&model.Conversation{}).
		Where("id = ? AND (remote_session_id IS NULL OR remote_session_id = '')", conversationID).
		Update("remote_session_id", sessionID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SaveTranscript 持久化最终转写与时长。
func (r *conversationRepository) SaveTranscript(conversationID uint, transcript model.Transcript, durationSeconds int) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"transcript":       transcript,
			"duration_seconds": durationSeconds,
		}).Error
}

// LinkFeedback 将反馈记录回链到会话。
func (r *conversationRepository) LinkFeedback(conversationID, feedbackID uint) error {
	return r.db.Model(&model.Conversation{}).
		Where("id = ?", conversationID).
		Update("feedback_id", feedbackID).Error
}

// FindWithPagination 从数据库中分页检索会话记录（管理端）。
func (r *conversationRepository) FindWithPagination(offset, limit int) ([]model.Conversation, int64, error) {
	var conversations []model.Conversation
	var total int64

	db := r.db.Model(&model.Conversation{})

	err := db.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = db.Preload("Agent").Preload("Product").
		Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&conversations).Error
	if err != nil {
		return nil, 0, err
	}

	return conversations, total, nil
}
