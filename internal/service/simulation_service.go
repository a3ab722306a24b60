package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/log"
	"salescoach-go/pkg/tasks"
	"salescoach-go/pkg/voice"
	"time"

	"gorm.io/gorm"
)

// ArchivePublisher 把归档任务投递到消息队列。
// 用函数类型注入，便于单测替换，也避免 service 层直接依赖 Kafka 包的全局生产者。
type ArchivePublisher func(task tasks.SessionArchiveTask) error

// EndSimulationResult 是结束流程的返回结果。
type EndSimulationResult struct {
	ConversationID uint             `json:"conversation_id"`
	Transcript     model.Transcript `json:"transcript"`
	Feedback       *model.Feedback  `json:"feedback"`
	Warning        bool             `json:"warning,omitempty"`
}

// SimulationService 接口定义了会话结束时的收口编排。
type SimulationService interface {
	// EndSimulation 汇总转写与时长、生成反馈并触发归档。
	EndSimulation(ctx context.Context, user *model.User, conversationID uint, clientTurns []model.TranscriptTurn, durationSeconds int) (*EndSimulationResult, error)
}

type simulationService struct {
	conversationRepo repository.ConversationRepository
	liveRepo         repository.LiveSessionRepository
	voiceClient      voice.Client
	feedbackService  FeedbackService
	publishArchive   ArchivePublisher
}

// NewSimulationService 创建一个新的 SimulationService 实例。
// publishArchive 可以为 nil，表示未接入归档管道。
func NewSimulationService(
	conversationRepo repository.ConversationRepository,
	liveRepo repository.LiveSessionRepository,
	voiceClient voice.Client,
	feedbackService FeedbackService,
	publishArchive ArchivePublisher,
) SimulationService {
	return &simulationService{
		conversationRepo: conversationRepo,
		liveRepo:         liveRepo,
		voiceClient:      voiceClient,
		feedbackService:  feedbackService,
		publishArchive:   publishArchive,
	}
}

// EndSimulation 执行完整的结束编排。
// 反馈生成是这条链路的目的，转写的持久化失败只告警不中断。
func (s *simulationService) EndSimulation(ctx context.Context, user *model.User, conversationID uint, clientTurns []model.TranscriptTurn, durationSeconds int) (*EndSimulationResult, error) {
	// 1. 加载会话（连带画像与产品，反馈提示词需要）并校验归属
	conversation, err := s.conversationRepo.FindByIDAndUserWithJoins(conversationID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	// 2. 汇总转写与时长
	transcript, duration := s.resolveTranscript(ctx, conversation, clientTurns, durationSeconds)
	log.Infof("[Simulation] 转写汇总完成, conversationID: %d, turns: %d, duration: %ds",
		conversationID, len(transcript), duration)

	// 3. 持久化转写（失败不中断，汇总结果继续流向反馈生成）
	if err := s.conversationRepo.SaveTranscript(conversationID, transcript, duration); err != nil {
		log.Warnf("[Simulation] 持久化转写失败, conversationID: %d, error: %v", conversationID, err)
	}

	// 4. 生成反馈（内部自带兜底，总会返回一条）
	feedback, warning, err := s.feedbackService.Synthesize(ctx, conversation, transcript, duration)
	if err != nil {
		return nil, err
	}

	// 5. 清理实时镜像（会话已收口，镜像不再需要）
	if err := s.liveRepo.ClearTurns(ctx, conversationID); err != nil {
		log.Warnf("[Simulation] 清理实时镜像失败, conversationID: %d, error: %v", conversationID, err)
	}

	// 6. 投递归档任务（尽力而为）
	if s.publishArchive != nil {
		task := tasks.SessionArchiveTask{
			ConversationID: conversationID,
			UserID:         user.ID,
			EndedAt:        time.Now().Format(time.RFC3339),
		}
		if err := s.publishArchive(task); err != nil {
			log.Warnf("[Simulation] 投递归档任务失败, conversationID: %d, error: %v", conversationID, err)
		}
	}

	return &EndSimulationResult{
		ConversationID: conversationID,
		Transcript:     transcript,
		Feedback:       feedback,
		Warning:        warning,
	}, nil
}

// resolveTranscript 按优先级汇总转写：
// 客户端上报 → Redis 实时镜像 → 服务商历史兜底。
// 全部为空时返回空转写，后续流程照常进行。
func (s *simulationService) resolveTranscript(ctx context.Context, conversation *model.Conversation, clientTurns []model.TranscriptTurn, durationSeconds int) (model.Transcript, int) {
	if len(clientTurns) > 0 {
		return model.Transcript(clientTurns), durationSeconds
	}

	mirrored, err := s.liveRepo.GetTurns(ctx, conversation.ID)
	if err != nil {
		log.Warnf("[Simulation] 读取实时镜像失败, conversationID: %d, error: %v", conversation.ID, err)
	}
	if len(mirrored) > 0 {
		log.Infof("[Simulation] 客户端未上报转写，使用实时镜像, conversationID: %d", conversation.ID)
		return model.Transcript(mirrored), durationSeconds
	}

	// 只有会话确实启动过才值得去服务商兜底
	if conversation.RemoteSessionID != "" {
		history, err := s.voiceClient.GetSessionHistory(ctx, conversation.RemoteSessionID)
		if err != nil {
			// 兜底拉取失败整体丢弃：宁可空转写也不能卡住收口流程
			log.Warnf("[Simulation] 服务商历史兜底失败, conversationID: %d, error: %v", conversation.ID, err)
		} else if len(history.Turns) > 0 {
			log.Infof("[Simulation] 使用服务商历史兜底, conversationID: %d", conversation.ID)
			duration := history.DurationSeconds
			if duration == 0 {
				duration = durationSeconds
			}
			return model.Transcript(history.Turns), duration
		}
	}

	return model.Transcript{}, durationSeconds
}
