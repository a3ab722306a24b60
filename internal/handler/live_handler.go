package handler

import (
	"encoding/json"
	"net/http"
	"salescoach-go/internal/model"
	"salescoach-go/internal/service"
	"salescoach-go/pkg/log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// LiveHandler 负责处理实时转写镜像的 WebSocket 连接。
type LiveHandler struct {
	liveService service.LiveService
}

// NewLiveHandler 创建一个新的 LiveHandler 实例。
func NewLiveHandler(liveService service.LiveService) *LiveHandler {
	return &LiveHandler{liveService: liveService}
}

// GetWsToken 为当前用户的某次会话签发一次性 WebSocket 连接令牌。
func (h *LiveHandler) GetWsToken(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	conversationID, err := strconv.ParseUint(c.Query("conversation_id"), 10, 64)
	if err != nil || conversationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "conversation_id requis"})
		return
	}

	wsToken, err := h.liveService.IssueWsToken(c.Request.Context(), user, uint(conversationID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"wsToken": wsToken}})
}

// liveTurnMessage 是浏览器推送的单轮发言。
type liveTurnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Handle 处理一个传入的 WebSocket 连接。
// 握手阶段用一次性令牌换会话身份，之后每条消息追加到实时镜像。
func (h *LiveHandler) Handle(c *gin.Context) {
	wsToken := c.Param("token")
	userID, conversationID, err := h.liveService.Attach(c.Request.Context(), wsToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "jeton de connexion invalide", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("[Live] 实时镜像连接已建立, userID: %d, conversationID: %d", userID, conversationID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[Live] 连接异常断开, conversationID: %d, error: %v", conversationID, err)
			}
			break
		}

		var msg liveTurnMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Content == "" {
			// 坏消息跳过，不断开连接
			log.Warnf("[Live] 忽略无法解析的消息, conversationID: %d", conversationID)
			continue
		}
		role := msg.Role
		if role != model.TurnRoleUser {
			role = model.TurnRoleAssistant
		}

		now := time.Now()
		turn := model.TranscriptTurn{Role: role, Content: msg.Content, Timestamp: &now}
		if err := h.liveService.RecordTurn(c.Request.Context(), conversationID, turn); err != nil {
			log.Warnf("[Live] 写入实时镜像失败, conversationID: %d, error: %v", conversationID, err)
		}
	}

	log.Infof("[Live] 实时镜像连接已关闭, conversationID: %d", conversationID)
}
