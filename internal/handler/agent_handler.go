package handler

import (
	"net/http"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AgentHandler 负责处理客户画像相关的 API 请求。
type AgentHandler struct {
	agentService service.AgentService
}

// NewAgentHandler 创建一个新的 AgentHandler 实例。
func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

// List 返回当前用户可见的画像列表（私有 + 共享）。
func (h *AgentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agents, err := h.agentService.List(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": agents, "message": "success"})
}

// Get 返回单个画像。
func (h *AgentHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	agent, err := h.agentService.Get(agentID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": agent, "message": "success"})
}

// Create 创建一个私有画像。
func (h *AgentHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateAgent: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}
	agent, err := h.agentService.Create(user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": agent, "message": "success"})
}

// Update 更新一个私有画像。
func (h *AgentHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	var req service.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}
	agent, err := h.agentService.Update(agentID, user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": agent, "message": "success"})
}

// Delete 删除一个私有画像。
func (h *AgentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	agentID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	if err := h.agentService.Delete(agentID, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success"})
}

// parseIDParam 解析路径中的数字 ID；非法时直接写回 400。
func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "identifiant invalide"})
		return 0, strconv.ErrSyntax
	}
	return uint(id), nil
}
