// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"salescoach-go/internal/model"

	"gorm.io/gorm"
)

// AgentRepository 接口定义了客户画像数据的持久化操作。
type AgentRepository interface {
	Create(agent *model.Agent) error
	// FindVisible 返回某用户可见的画像：本人私有的加上共享（user_id 为空）的。
	FindVisible(userID uint) ([]model.Agent, error)
	// FindByIDVisible 按 ID 查找，且必须对该用户可见。
	FindByIDVisible(agentID, userID uint) (*model.Agent, error)
	Update(agent *model.Agent) error
	Delete(agentID, userID uint) error
}

type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository 创建一个新的 AgentRepository 实例。
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

// Create 在数据库中创建一个新的画像记录。
func (r *agentRepository) Create(agent *model.Agent) error {
	return r.db.Create(agent).Error
}

// FindVisible 返回用户可见的画像列表。
func (r *agentRepository) FindVisible(userID uint) ([]model.Agent, error) {
	var agents []model.Agent
	err := r.db.Where("user_id = ? OR user_id IS NULL", userID).
		Order("created_at DESC").Find(&agents).Error
	return agents, err
}

// FindByIDVisible 按 ID 查找对该用户可见的画像。
func (r *agentRepository) FindByIDVisible(agentID, userID uint) (*model.Agent, error) {
	var agent model.Agent
	err := r.db.Where("id = ? AND (user_id = ? OR user_id IS NULL)", agentID, userID).
		First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// Update 更新数据库中一个已存在的画像记录。
func (r *agentRepository) Update(agent *model.Agent) error {
	return r.db.Save(agent).Error
}

// Delete 删除用户私有的画像。共享画像不允许通过此入口删除。
func (r *agentRepository) Delete(agentID, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", agentID, userID).
		Delete(&model.Agent{}).Error
}
