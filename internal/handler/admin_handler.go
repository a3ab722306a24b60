package handler

import (
	"net/http"
	"salescoach-go/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AdminHandler 负责处理管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 以分页形式返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, size := parsePagination(c)
	response, err := h.adminService.ListUsers(page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取用户列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": response, "message": "success"})
}

// ListConversations 以分页形式返回全量会话列表。
func (h *AdminHandler) ListConversations(c *gin.Context) {
	page, size := parsePagination(c)
	response, err := h.adminService.ListConversations(page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取会话列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": response, "message": "success"})
}

// parsePagination 解析分页查询参数，非法值回退到默认值。
func parsePagination(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
