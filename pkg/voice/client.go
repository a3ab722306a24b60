// Package voice 提供了与会话式语音代理服务商交互的客户端。
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/config"
	"salescoach-go/internal/model"
	"salescoach-go/pkg/log"
	"time"
)

// Client 定义了语音代理服务商的操作接口。
type Client interface {
	// CreateAgent 创建一个新的会话代理，返回服务商侧的 agent 标识。
	CreateAgent(ctx context.Context, name, voiceID, prompt string) (string, error)
	// UpdateAgent 按场景重新配置已存在的代理（提示词、语音、会话上限）。
	UpdateAgent(ctx context.Context, agentID string, update AgentUpdate) error
	// GetSignedURL 为指定代理换取一个短时效的签名连接地址。
	GetSignedURL(ctx context.Context, agentID string) (string, error)
	// GetSessionHistory 拉取一次会话的转写历史，仅作为兜底使用。
	GetSessionHistory(ctx context.Context, sessionID string) (*SessionHistory, error)
	// HasAPIKey 返回是否配置了服务商凭证；未配置时走 directUse 降级路径。
	HasAPIKey() bool
}

// AgentUpdate 是按场景推送给服务商的代理配置。
type AgentUpdate struct {
	Name               string
	Prompt             string
	VoiceID            string
	Language           string
	MaxDurationSeconds int
	Tags               []string
}

// SessionHistory 是服务商侧保存的会话记录。
type SessionHistory struct {
	Turns           []model.TranscriptTurn
	DurationSeconds int
}

type httpClient struct {
	cfg    config.VoiceConfig
	client *http.Client
}

// NewClient 创建一个新的语音服务商客户端。
func NewClient(cfg config.VoiceConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) HasAPIKey() bool {
	return c.cfg.APIKey != ""
}

// createAgentRequest 对应服务商的建代理载荷。
type createAgentRequest struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
	PlatformSettings   *platformSettings  `json:"platform_settings,omitempty"`
}

type conversationConfig struct {
	Agent        agentSection        `json:"agent"`
	TTS          ttsSection          `json:"tts"`
	Conversation conversationSection `json:"conversation"`
}

type agentSection struct {
	Prompt       promptSection `json:"prompt"`
	FirstMessage string        `json:"first_message,omitempty"`
	Language     string        `json:"language"`
}

type promptSection struct {
	Prompt      string  `json:"prompt"`
	LLM         string  `json:"llm,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ttsSection struct {
	VoiceID         string  `json:"voice_id"`
	ModelID         string  `json:"model_id"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type conversationSection struct {
	MaxDurationSeconds int `json:"max_duration_seconds"`
}

type platformSettings struct {
	Tags []string `json:"tags,omitempty"`
}

type createAgentResponse struct {
	AgentID string `json:"agent_id"`
}

// CreateAgent 向服务商发起建代理请求。
func (c *httpClient) CreateAgent(ctx context.Context, name, voiceID, prompt string) (string, error) {
	reqBody := createAgentRequest{
		Name: name,
		ConversationConfig: conversationConfig{
			Agent: agentSection{
				Prompt:       promptSection{Prompt: prompt, LLM: c.cfg.AgentLLM},
				FirstMessage: "Bonjour",
				Language:     c.language(),
			},
			TTS: ttsSection{
				VoiceID:         voiceID,
				ModelID:         "eleven_flash_v2_5",
				Stability:       0.5,
				SimilarityBoost: 0.8,
				Speed:           1.0,
			},
			Conversation: conversationSection{MaxDurationSeconds: 1800},
		},
	}

	var resp createAgentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/convai/agents/create", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.AgentID == "" {
		return "", apperr.NewUpstream("voice", http.StatusOK, "réponse sans agent_id")
	}
	log.Infof("[VoiceClient] 代理创建成功, agentID: %s", resp.AgentID)
	return resp.AgentID, nil
}

// updateAgentRequest 对应服务商的改代理载荷。
type updateAgentRequest struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
	Tags               []string           `json:"tags,omitempty"`
}

// UpdateAgent 将渲染好的场景配置推送到服务商。
func (c *httpClient) UpdateAgent(ctx context.Context, agentID string, update AgentUpdate) error {
	language := update.Language
	if language == "" {
		language = c.language()
	}
	reqBody := updateAgentRequest{
		Name: update.Name,
		ConversationConfig: conversationConfig{
			Agent: agentSection{
				Prompt:   promptSection{Prompt: update.Prompt, LLM: c.cfg.AgentLLM, Temperature: 0.3},
				Language: language,
			},
			TTS: ttsSection{
				VoiceID:         update.VoiceID,
				ModelID:         "eleven_flash_v2_5",
				Stability:       0.5,
				SimilarityBoost: 0.8,
				Speed:           1.0,
			},
			Conversation: conversationSection{MaxDurationSeconds: update.MaxDurationSeconds},
		},
		Tags: update.Tags,
	}
	return c.doJSON(ctx, http.MethodPatch, "/v1/convai/agents/"+url.PathEscape(agentID), reqBody, nil)
}

type signedURLResponse struct {
	SignedURL string `json:"signed_url"`
}

// GetSignedURL 换取短时效签名连接地址。签名地址通常单次有效，调用方不应盲目重试。
func (c *httpClient) GetSignedURL(ctx context.Context, agentID string) (string, error) {
	var resp signedURLResponse
	path := "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(agentID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if resp.SignedURL == "" {
		return "", apperr.NewUpstream("voice", http.StatusOK, "réponse sans signed_url")
	}
	return resp.SignedURL, nil
}

// sessionHistoryResponse 对应服务商的会话历史载荷。
type sessionHistoryResponse struct {
	ConversationHistory []struct {
		Role      string `json:"role"`
		Source    string `json:"source"`
		Message   string `json:"message"`
		Content   string `json:"content"`
		Text      string `json:"text"`
	} `json:"conversation_history"`
	DurationSeconds int `json:"duration_seconds"`
}

// GetSessionHistory 拉取会话历史。不同版本的服务商载荷字段名不一致，这里做宽容解析。
func (c *httpClient) GetSessionHistory(ctx context.Context, sessionID string) (*SessionHistory, error) {
	var resp sessionHistoryResponse
	path := "/v1/convai/conversations/" + url.PathEscape(sessionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	turns := make([]model.TranscriptTurn, 0, len(resp.ConversationHistory))
	for _, entry := range resp.ConversationHistory {
		role := entry.Role
		if role == "" {
			role = entry.Source
		}
		if role != model.TurnRoleUser {
			role = model.TurnRoleAssistant
		}
		content := entry.Content
		if content == "" {
			content = entry.Message
		}
		if content == "" {
			content = entry.Text
		}
		turns = append(turns, model.TranscriptTurn{Role: role, Content: content})
	}
	return &SessionHistory{Turns: turns, DurationSeconds: resp.DurationSeconds}, nil
}

func (c *httpClient) language() string {
	if c.cfg.Language != "" {
		return c.cfg.Language
	}
	return "fr"
}

// doJSON 执行一次 JSON 请求，非 2xx 响应转换为 UpstreamError。
func (c *httpClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(reqBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.NewUpstream("voice", 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Errorf("[VoiceClient] 服务商返回错误, method: %s, path: %s, status: %d", method, path, resp.StatusCode)
		return apperr.NewUpstream("voice", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("解析服务商响应失败: %w", err)
		}
	}
	return nil
}
