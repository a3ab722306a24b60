// Package model 包含了应用的数据模型定义。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList 是以 JSON 文本列存储的字符串列表。
type StringList []string

// Value 实现 driver.Valuer。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner。
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("string list 列类型不支持")
	}
}

// Feedback 对应于数据库中的 'feedback' 表，与一次会话一对一。
// 创建后不再变更；生成失败时写入兜底内容而不是缺失。
type Feedback struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ConversationID uint `gorm:"index;not null" json:"conversationId"`
	UserID         uint `gorm:"index;not null" json:"userId"`
	// Note 是 0-100 的综合评分。
	Note             int        `gorm:"not null" json:"note"`
	PointsForts      StringList `gorm:"type:text" json:"points_forts"`
	AxesAmelioration StringList `gorm:"type:text" json:"axes_amelioration"`
	MomentsCles      StringList `gorm:"type:text" json:"moments_cles"`
	Suggestions      StringList `gorm:"type:text" json:"suggestions"`
	AnalyseComplete  string     `gorm:"type:longtext" json:"analyse_complete"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Feedback) TableName() string {
	return "feedback"
}
