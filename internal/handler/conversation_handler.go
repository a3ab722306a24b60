package handler

import (
	"net/http"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责处理模拟场景记录相关的 API 请求。
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Create 创建一条新的模拟场景记录。
func (h *ConversationHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req service.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateConversation: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}
	conversation, err := h.conversationService.Create(user.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": conversation, "message": "success"})
}

// List 返回当前用户的会话列表。
func (h *ConversationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversations, err := h.conversationService.List(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": conversations, "message": "success"})
}

// Get 返回单条会话详情（连带画像、产品与反馈）。
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	conversation, err := h.conversationService.Get(conversationID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": conversation, "message": "success"})
}

// ArchiveURL 返回归档转写 JSON 的短时效下载地址。
func (h *ConversationHandler) ArchiveURL(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	url, err := h.conversationService.ArchiveDownloadURL(conversationID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"url": url}, "message": "success"})
}
