// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"salescoach-go/internal/model"

	"gorm.io/gorm"
)

// ProductRepository 接口定义了产品数据的持久化操作。
type ProductRepository interface {
	Create(product *model.Product) error
	FindByUser(userID uint) ([]model.Product, error)
	FindByIDAndUser(productID, userID uint) (*model.Product, error)
	Update(product *model.Product) error
	Delete(productID, userID uint) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建一个新的 ProductRepository 实例。
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create 在数据库中创建一个新的产品记录。
func (r *productRepository) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

// FindByUser 返回用户拥有的产品列表。
func (r *productRepository) FindByUser(userID uint) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&products).Error
	return products, err
}

// FindByIDAndUser 按 ID 和归属查找产品。
func (r *productRepository) FindByIDAndUser(productID, userID uint) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("id = ? AND user_id = ?", productID, userID).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新数据库中一个已存在的产品记录。
func (r *productRepository) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// Delete 删除用户拥有的产品。
func (r *productRepository) Delete(productID, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", productID, userID).
		Delete(&model.Product{}).Error
}
