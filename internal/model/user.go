// Package model 包含了应用的数据模型定义。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	// Password 存储 bcrypt 哈希，永不序列化到响应中。
	Password  string `gorm:"type:varchar(255);not null" json:"-"`
	Firstname string `gorm:"type:varchar(100)" json:"firstname"`
	Lastname  string `gorm:"type:varchar(100)" json:"lastname"`
	Email     string `gorm:"type:varchar(255)" json:"email"`
	Role      string `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	// RemoteAgentID 是语音服务商侧为该用户创建的会话代理标识。
	// 懒创建，每个用户至多一个，跨场景复用。
	RemoteAgentID string    `gorm:"type:varchar(100)" json:"remoteAgentId"`
	Credits       int       `gorm:"not null;default:0" json:"credits"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
