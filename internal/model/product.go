// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Product 对应于数据库中的 'products' 表，是模拟场景的销售标的。
type Product struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"userId"`
	Name   string `gorm:"type:varchar(255);not null" json:"name"`
	// Pitch 是销售话术的核心卖点描述。
	Pitch  string  `gorm:"type:text" json:"pitch"`
	Price  float64 `gorm:"type:decimal(10,2)" json:"price"`
	Market string  `gorm:"type:varchar(100)" json:"market"`
	// ExpectedObjections 记录预期会遇到的主要异议，供复盘参考。
	ExpectedObjections string    `gorm:"type:text" json:"expectedObjections"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Product) TableName() string {
	return "products"
}
