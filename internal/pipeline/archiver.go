// Package pipeline 定义了会话归档的核心流程。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"salescoach-go/internal/config"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/es"
	"salescoach-go/pkg/log"
	"salescoach-go/pkg/storage"
	"salescoach-go/pkg/tasks"
	"strings"
)

// Archiver 封装了会话归档的所有依赖和逻辑。
// 消费端从 Kafka 收到归档任务后：转写 JSON 落 MinIO，摘要文档进 Elasticsearch。
type Archiver struct {
	conversationRepo repository.ConversationRepository
	esCfg            config.ElasticsearchConfig
	minioCfg         config.MinIOConfig
}

// NewArchiver 创建一个新的 Archiver 实例。
func NewArchiver(
	conversationRepo repository.ConversationRepository,
	esCfg config.ElasticsearchConfig,
	minioCfg config.MinIOConfig,
) *Archiver {
	return &Archiver{
		conversationRepo: conversationRepo,
		esCfg:            esCfg,
		minioCfg:         minioCfg,
	}
}

// archivedTranscript 是落到对象存储的归档载荷。
type archivedTranscript struct {
	ConversationID  uint                   `json:"conversation_id"`
	UserID          uint                   `json:"user_id"`
	CallType        string                 `json:"call_type"`
	Goal            string                 `json:"goal"`
	DurationSeconds int                    `json:"duration_seconds"`
	EndedAt         string                 `json:"ended_at"`
	Transcript      []model.TranscriptTurn `json:"transcript"`
}

// Process 是会话归档的主函数。
func (a *Archiver) Process(ctx context.Context, task tasks.SessionArchiveTask) error {
	log.Infof("[Archiver] 开始归档会话, ConversationID: %d, UserID: %d", task.ConversationID, task.UserID)

	// 1. 连带画像、产品与反馈加载会话
	conversation, err := a.conversationRepo.FindByIDWithJoins(task.ConversationID)
	if err != nil {
		return fmt.Errorf("加载会话失败: %w", err)
	}

	// 2. 归档转写 JSON 到 MinIO
	payload := archivedTranscript{
		ConversationID:  conversation.ID,
		UserID:          conversation.UserID,
		CallType:        conversation.CallType,
		Goal:            conversation.Goal,
		DurationSeconds: conversation.DurationSeconds,
		EndedAt:         task.EndedAt,
		Transcript:      conversation.Transcript,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化归档载荷失败: %w", err)
	}
	objectName := fmt.Sprintf("transcripts/%d.json", conversation.ID)
	if err := storage.PutJSONObject(ctx, a.minioCfg.BucketName, objectName, payloadBytes); err != nil {
		return fmt.Errorf("上传归档对象失败: %w", err)
	}
	log.Infof("[Archiver] 转写已归档到对象存储, object: %s", objectName)

	// 3. 索引摘要文档到 Elasticsearch
	doc := model.SimulationDocument{
		ConversationID:  conversation.ID,
		UserID:          conversation.UserID,
		CallType:        conversation.CallType,
		Goal:            conversation.Goal,
		TranscriptText:  flattenTranscript(conversation.Transcript),
		DurationSeconds: conversation.DurationSeconds,
		EndedAt:         task.EndedAt,
	}
	if conversation.Agent != nil {
		doc.AgentName = conversation.Agent.Name
	}
	if conversation.Product != nil {
		doc.ProductName = conversation.Product.Name
	}
	if conversation.Feedback != nil {
		doc.Note = conversation.Feedback.Note
	}
	if err := es.IndexSimulation(ctx, a.esCfg.IndexName, doc); err != nil {
		return fmt.Errorf("索引摘要文档失败: %w", err)
	}

	log.Infof("[Archiver] 会话归档完成, ConversationID: %d", conversation.ID)
	return nil
}

// flattenTranscript 把转写展平为全文检索用的纯文本。
func flattenTranscript(transcript model.Transcript) string {
	var sb strings.Builder
	for _, turn := range transcript {
		speaker := "Client"
		if turn.Role == model.TurnRoleUser {
			speaker = "Commercial"
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
