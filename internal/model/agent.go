// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 难度等级枚举值。
const (
	DifficultyEasy   = "facile"
	DifficultyMedium = "moyen"
	DifficultyHard   = "difficile"
)

// Personality 描述客户画像的五个定性维度。
type Personality struct {
	Attitude        string `json:"attitude"`
	Verbalisation   string `json:"verbalisation"`
	Ecoute          string `json:"ecoute"`
	Presence        string `json:"presence"`
	PriseDeDecision string `json:"prise_de_decision"`
}

// Value 实现 driver.Valuer，将 Personality 序列化为 JSON 文本存储。
func (p Personality) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner，从 JSON 文本列还原 Personality。
func (p *Personality) Scan(value interface{}) error {
	if value == nil {
		*p = Personality{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("personality 列类型不支持")
	}
}

// Agent 对应于数据库中的 'agents' 表。
// 它是一个可复用的模拟客户画像：姓名、职位、难度与性格维度。
type Agent struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// UserID 为空表示共享（全局）画像，所有用户可见。
	UserID      *uint       `gorm:"index" json:"userId"`
	Name        string      `gorm:"type:varchar(100);not null" json:"name"`
	JobTitle    string      `gorm:"type:varchar(100)" json:"jobTitle"`
	Difficulty  string      `gorm:"type:varchar(20);not null;default:'moyen'" json:"difficulty"`
	Personality Personality `gorm:"type:text" json:"personality"`
	// VoiceID 固定的语音标识；为空时由启发式策略选择。
	VoiceID    string    `gorm:"type:varchar(100)" json:"voiceId"`
	PictureURL string    `gorm:"type:varchar(500)" json:"pictureUrl"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Agent) TableName() string {
	return "agents"
}
