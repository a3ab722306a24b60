package service

import (
	"context"
	"encoding/json"
	"fmt"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/internal/repository"
	"salescoach-go/pkg/llm"
	"salescoach-go/pkg/log"
	"strings"
)

// 分析调用的生成参数：低温度保证输出格式稳定。
var (
	feedbackTemperature = 0.1
	feedbackMaxTokens   = 2000
)

// FeedbackService 接口定义了会话反馈的生成与持久化操作。
type FeedbackService interface {
	// Synthesize 基于转写生成结构化反馈并持久化。
	// 无论 LLM 成功与否，调用方总能拿到一条反馈；warning 为真表示用的是兜底内容。
	Synthesize(ctx context.Context, conversation *model.Conversation, transcript model.Transcript, durationSeconds int) (feedback *model.Feedback, warning bool, err error)
}

type feedbackService struct {
	feedbackRepo     repository.FeedbackRepository
	conversationRepo repository.ConversationRepository
	llmClient        llm.Client
}

// NewFeedbackService 创建一个新的 FeedbackService 实例。
func NewFeedbackService(
	feedbackRepo repository.FeedbackRepository,
	conversationRepo repository.ConversationRepository,
	llmClient llm.Client,
) FeedbackService {
	return &feedbackService{
		feedbackRepo:     feedbackRepo,
		conversationRepo: conversationRepo,
		llmClient:        llmClient,
	}
}

// feedbackPayload 对应 LLM 返回的结构化 JSON。
type feedbackPayload struct {
	Note             int      `json:"note"`
	PointsForts      []string `json:"points_forts"`
	AxesAmelioration []string `json:"axes_amelioration"`
	MomentsCles      []string `json:"moments_cles"`
	Suggestions      []string `json:"suggestions"`
	AnalyseComplete  string   `json:"analyse_complete"`
}

// Synthesize 生成并持久化反馈。
func (s *feedbackService) Synthesize(ctx context.Context, conversation *model.Conversation, transcript model.Transcript, durationSeconds int) (*model.Feedback, bool, error) {
	prompt := buildAnalysisPrompt(conversation, transcript, durationSeconds)

	warning := false
	var feedback *model.Feedback

	raw, err := s.llmClient.Complete(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		&llm.GenerationParams{Temperature: &feedbackTemperature, MaxTokens: &feedbackMaxTokens})
	if err != nil {
		// LLM 调用失败：用固定兜底内容顶上，带 warning 标记返回
		log.Errorf("[Feedback] 调用分析模型失败, conversationID: %d, error: %v", conversation.ID, err)
		warning = true
		feedback = basicFallbackFeedback()
	} else {
		parsed, parseErr := ParseStructuredFeedback(raw)
		if parseErr != nil {
			// 解析失败只在本地恢复，不向上传播
			log.Warnf("[Feedback] 模型输出不是合法 JSON，保留原文, conversationID: %d", conversation.ID)
		}
		feedback = parsed
	}

	feedback.ConversationID = conversation.ID
	feedback.UserID = conversation.UserID

	// 持久化失败降级为告警：调用方依然拿到生成结果
	if err := s.feedbackRepo.Create(feedback); err != nil {
		log.Errorf("[Feedback] 持久化反馈失败, conversationID: %d, error: %v", conversation.ID, err)
		return feedback, warning, nil
	}
	if err := s.conversationRepo.LinkFeedback(conversation.ID, feedback.ID); err != nil {
		log.Warnf("[Feedback] 回链反馈到会话失败, conversationID: %d, feedbackID: %d, error: %v",
			conversation.ID, feedback.ID, err)
	}

	log.Infof("[Feedback] 反馈生成完成, conversationID: %d, note: %d, warning: %v",
		conversation.ID, feedback.Note, warning)
	return feedback, warning, nil
}

// ParseStructuredFeedback 把模型原始输出解析为反馈记录。
// 兼容 ```json 围栏包裹的输出；note 截断到 0-100。
// 解析失败时返回中性兜底（note 70，原文放入 analyse_complete）并附带 ErrParse。
func ParseStructuredFeedback(raw string) (*model.Feedback, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload feedbackPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return &model.Feedback{
			Note:             70,
			PointsForts:      model.StringList{"Simulation complétée"},
			AxesAmelioration: model.StringList{"Analyse détaillée non disponible"},
			MomentsCles:      model.StringList{},
			Suggestions:      model.StringList{"Consultez le texte brut de l'analyse"},
			AnalyseComplete:  raw,
		}, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}

	note := payload.Note
	if note < 0 {
		note = 0
	}
	if note > 100 {
		note = 100
	}
	return &model.Feedback{
		Note:             note,
		PointsForts:      model.StringList(payload.PointsForts),
		AxesAmelioration: model.StringList(payload.AxesAmelioration),
		MomentsCles:      model.StringList(payload.MomentsCles),
		Suggestions:      model.StringList(payload.Suggestions),
		AnalyseComplete:  payload.AnalyseComplete,
	}, nil
}

// basicFallbackFeedback 是模型完全不可用时的固定兜底反馈。
func basicFallbackFeedback() *model.Feedback {
	return &model.Feedback{
		Note:             70,
		PointsForts:      model.StringList{"Participation active à la simulation", "Engagement dans l'exercice"},
		AxesAmelioration: model.StringList{"Continuez à pratiquer régulièrement"},
		MomentsCles:      model.StringList{},
		Suggestions:      model.StringList{"Relancez une simulation pour obtenir une analyse détaillée"},
		AnalyseComplete:  "L'analyse détaillée n'a pas pu être générée pour cette session. Vos efforts de pratique restent valorisés, veuillez réessayer.",
	}
}

// buildAnalysisPrompt 渲染反馈分析提示词（法语，要求 JSON 输出）。
func buildAnalysisPrompt(conversation *model.Conversation, transcript model.Transcript, durationSeconds int) string {
	agentName := "le client"
	agentJob := ""
	if conversation.Agent != nil {
		agentName = conversation.Agent.Name
		agentJob = conversation.Agent.JobTitle
	}
	productName := "le produit"
	if conversation.Product != nil {
		productName = conversation.Product.Name
	}

	var sb strings.Builder
	sb.WriteString("Tu es un coach commercial expert. Analyse la simulation de vente suivante et fournis un feedback détaillé.\n\n")
	sb.WriteString("CONTEXTE:\n")
	sb.WriteString(fmt.Sprintf("- Type d'appel: %s\n", CallTypeDescription(conversation.CallType)))
	sb.WriteString(fmt.Sprintf("- Client simulé: %s, %s\n", agentName, agentJob))
	sb.WriteString(fmt.Sprintf("- Produit présenté: %s\n", productName))
	sb.WriteString(fmt.Sprintf("- Objectif commercial: %s\n", conversation.Goal))
	sb.WriteString(fmt.Sprintf("- Durée de l'appel: %d secondes\n", durationSeconds))
	sb.WriteString("\nTRANSCRIPT DE LA CONVERSATION:\n")
	for i, turn := range transcript {
		speaker := "**Client**"
		if turn.Role == model.TurnRoleUser {
			speaker = "**Commercial**"
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, speaker, turn.Content))
	}
	sb.WriteString("\nRéponds UNIQUEMENT avec un objet JSON valide, sans texte autour, au format:\n")
	sb.WriteString(`{
  "note": <note globale sur 100>,
  "points_forts": ["point fort 1", "point fort 2"],
  "axes_amelioration": ["axe 1", "axe 2"],
  "moments_cles": ["moment clé 1"],
  "suggestions": ["suggestion concrète 1"],
  "analyse_complete": "analyse détaillée en quelques paragraphes"
}`)
	return sb.String()
}
