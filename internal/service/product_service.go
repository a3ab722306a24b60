package service

import (
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"

	"gorm.io/gorm"
)

// ProductRequest 是创建/更新产品接口的入参。
type ProductRequest struct {
	Name               string  `json:"name" binding:"required"`
	Pitch              string  `json:"pitch"`
	Price              float64 `json:"price"`
	Market             string  `json:"market"`
	ExpectedObjections string  `json:"expectedObjections"`
}

// ProductService 接口定义了产品的业务操作。
type ProductService interface {
	List(userID uint) ([]model.Product, error)
	Get(productID, userID uint) (*model.Product, error)
	Create(userID uint, req ProductRequest) (*model.Product, error)
	Update(productID, userID uint, req ProductRequest) (*model.Product, error)
	Delete(productID, userID uint) error
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建一个新的 ProductService 实例。
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// List 返回用户拥有的产品列表。
func (s *productService) List(userID uint) ([]model.Product, error) {
	return s.productRepo.FindByUser(userID)
}

// Get 返回单个产品。
func (s *productService) Get(productID, userID uint) (*model.Product, error) {
	product, err := s.productRepo.FindByIDAndUser(productID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// Create 创建一个产品。
func (s *productService) Create(userID uint, req ProductRequest) (*model.Product, error) {
	product := &model.Product{
		UserID:             userID,
		Name:               req.Name,
		Pitch:              req.Pitch,
		Price:              req.Price,
		Market:             req.Market,
		ExpectedObjections: req.ExpectedObjections,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Update 更新一个产品。
func (s *productService) Update(productID, userID uint, req ProductRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByIDAndUser(productID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	product.Name = req.Name
	product.Pitch = req.Pitch
	product.Price = req.Price
	product.Market = req.Market
	product.ExpectedObjections = req.ExpectedObjections
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除一个产品。
func (s *productService) Delete(productID, userID uint) error {
	return s.productRepo.Delete(productID, userID)
}
