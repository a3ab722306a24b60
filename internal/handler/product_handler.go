package handler

import (
	"net/http"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ProductHandler 负责处理产品相关的 API 请求。
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler 创建一个新的 ProductHandler 实例。
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List 返回当前用户的产品列表。
func (h *ProductHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	products, err := h.productService.List(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": products, "message": "success"})
}

// Get 返回单个产品。
func (h *ProductHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	product, err := h.productService.Get(productID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": product, "message": "success"})
}

// Create 创建一个产品。
func (h *ProductHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateProduct: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}
	product, err := h.productService.Create(user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": product, "message": "success"})
}

// Update 更新一个产品。
func (h *ProductHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}
	product, err := h.productService.Update(productID, user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": product, "message": "success"})
}

// Delete 删除一个产品。
func (h *ProductHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	if err := h.productService.Delete(productID, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success"})
}
