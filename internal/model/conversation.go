// Package model 包含了应用的数据模型定义。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 通话类型枚举值。
const (
	CallTypeColdCall         = "cold_call"
	CallTypeDiscoveryMeeting = "discovery_meeting"
	CallTypeProductDemo      = "product_demo"
	CallTypeClosingCall      = "closing_call"
	CallTypeFollowUpCall     = "follow_up_call"
)

// 转写角色：user 为销售（打电话的人），assistant 为客户画像。
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

// TranscriptTurn 代表一轮带角色标记的发言。
type TranscriptTurn struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Transcript 是按发生顺序排列的发言序列，以 JSON 文本列存储。
type Transcript []TranscriptTurn

// Value 实现 driver.Valuer。
func (t Transcript) Value() (driver.Value, error) {
	if t == nil {
		t = Transcript{}
	}
	return json.Marshal(t)
}

// Scan 实现 sql.Scanner。
func (t *Transcript) Scan(value interface{}) error {
	if value == nil {
		*t = Transcript{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return errors.New("transcript 列类型不支持")
	}
}

// CallContext 描述场景上下文：客户所在行业、公司与双方关系历史。
type CallContext struct {
	Sector  string `json:"secteur"`
	Company string `json:"company"`
	// RelationHistory 例如 "Premier contact"、"2ème appel"、"Relance post-devis"。
	RelationHistory string `json:"historique_relation"`
}

// Value 实现 driver.Valuer。
func (c CallContext) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan 实现 sql.Scanner。
func (c *CallContext) Scan(value interface{}) error {
	if value == nil {
		*c = CallContext{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return errors.New("context 列类型不支持")
	}
}

// Conversation 对应于数据库中的 'conversations' 表，代表一次模拟会话。
// 创建时只含场景配置；会话启动与结束过程中逐步填充可变字段。
type Conversation struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"index;not null" json:"userId"`
	AgentID   uint        `gorm:"index;not null" json:"agentId"`
	ProductID uint        `gorm:"index;not null" json:"productId"`
	CallType  string      `gorm:"type:varchar(50);not null" json:"callType"`
	Goal      string      `gorm:"type:text" json:"goal"`
	Context   CallContext `gorm:"type:text" json:"context"`
	// RemoteSessionID 是启动时绑定到本次会话的服务商 agent 实例标识。
	// 一经赋值即视为"已启动"，作为防止二次启动的守卫字段。
	RemoteSessionID string     `gorm:"type:varchar(100)" json:"remoteSessionId"`
	Transcript      Transcript `gorm:"type:longtext" json:"transcript"`
	DurationSeconds int        `gorm:"not null;default:0" json:"durationSeconds"`
	FeedbackID      *uint      `json:"feedbackId"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	// 关联对象，按需预加载。
	Agent    *Agent    `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Product  *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Feedback *Feedback `gorm:"foreignKey:FeedbackID" json:"feedback,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Conversation) TableName() string {
	return "conversations"
}

// Started 返回会话是否已经启动过。
func (c *Conversation) Started() bool {
	return c.RemoteSessionID != ""
}
