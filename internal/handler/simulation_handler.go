package handler

import (
	"net/http"
	"salescoach-go/internal/model"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SimulationHandler 负责处理模拟会话生命周期的 API 请求。
type SimulationHandler struct {
	provisionService  service.ProvisionService
	sessionService    service.SessionService
	simulationService service.SimulationService
}

// NewSimulationHandler 创建一个新的 SimulationHandler 实例。
func NewSimulationHandler(
	provisionService service.ProvisionService,
	sessionService service.SessionService,
	simulationService service.SimulationService,
) *SimulationHandler {
	return &SimulationHandler{
		provisionService:  provisionService,
		sessionService:    sessionService,
		simulationService: simulationService,
	}
}

// StartRequest 定义了启动模拟接口的请求体结构。
type StartRequest struct {
	ConversationID uint `json:"conversation_id" binding:"required"`
}

// Start 启动一次模拟会话：确保代理存在并按场景配置。
func (h *SimulationHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("StartSimulation: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "conversation_id requis"})
		return
	}

	result, err := h.provisionService.StartSimulation(c.Request.Context(), user, req.ConversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"conversation_id": result.ConversationID,
			"agent_id":        result.AgentID,
			"success":         true,
		},
	})
}

// CredentialRequest 定义了签发连接凭证接口的请求体结构。
type CredentialRequest struct {
	ConversationID uint `json:"conversation_id" binding:"required"`
}

// Credential 为前端签发语音连接凭证（签名地址或 directUse 降级）。
func (h *SimulationHandler) Credential(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "conversation_id requis"})
		return
	}

	credential, err := h.sessionService.IssueCredential(c.Request.Context(), user, req.ConversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": credential, "message": "success"})
}

// EndRequest 定义了结束模拟接口的请求体结构。
type EndRequest struct {
	Messages []model.TranscriptTurn `json:"messages"`
	Duration int                    `json:"duration"`
}

// End 结束一次模拟会话：汇总转写、生成反馈、触发归档。
// 反馈生成自带兜底，这个接口不会因为 LLM 或持久化问题而失败。
func (h *SimulationHandler) End(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	var req EndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("EndSimulation: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "requête invalide"})
		return
	}

	result, err := h.simulationService.EndSimulation(c.Request.Context(), user, conversationID, req.Messages, req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{
		"conversation_id": result.ConversationID,
		"transcript":      result.Transcript,
		"feedback":        result.Feedback,
	}
	if result.Warning {
		data["warning"] = "analyse de secours utilisée"
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": data, "message": "success"})
}
