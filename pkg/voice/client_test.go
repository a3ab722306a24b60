package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/config"
	"salescoach-go/internal/model"
	"salescoach-go/pkg/log"
	"testing"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func newTestClient(baseURL string) Client {
	return NewClient(config.VoiceConfig{
		APIKey:   "test-key",
		BaseURL:  baseURL,
		AgentLLM: "gemini-2.0-flash",
		Language: "fr",
	})
}

func TestCreateAgent(t *testing.T) {
	var gotKey string
	var gotBody createAgentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/convai/agents/create" {
			t.Errorf("请求不符: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"agent_id": "agent_123"})
	}))
	defer srv.Close()

	agentID, err := newTestClient(srv.URL).CreateAgent(context.Background(), "Agent_7", "voice-1", "Tu es un client.")
	if err != nil {
		t.Fatalf("CreateAgent 失败: %v", err)
	}
	if agentID != "agent_123" {
		t.Errorf("agentID = %q, want agent_123", agentID)
	}
	if gotKey != "test-key" {
		t.Errorf("应携带服务商凭证头, got %q", gotKey)
	}
	if gotBody.Name != "Agent_7" {
		t.Errorf("name = %q", gotBody.Name)
	}
	if gotBody.ConversationConfig.TTS.VoiceID != "voice-1" {
		t.Errorf("voice_id = %q", gotBody.ConversationConfig.TTS.VoiceID)
	}
	if gotBody.ConversationConfig.Agent.Prompt.Prompt != "Tu es un client." {
		t.Errorf("prompt 不符: %q", gotBody.ConversationConfig.Agent.Prompt.Prompt)
	}
}

func TestCreateAgentMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateAgent(context.Background(), "Agent_7", "voice-1", "p")
	if !apperr.IsUpstream(err) {
		t.Fatalf("缺失 agent_id 应报 UpstreamError, got %v", err)
	}
}

func TestUpdateAgentNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		http.Error(w, `{"detail":"agent introuvable"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).UpdateAgent(context.Background(), "agent_123", AgentUpdate{Name: "Agent_7_cold_call"})
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("非 2xx 应转换为 UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", ue.Status)
	}
	if ue.Body == "" {
		t.Error("应保留响应体用于诊断")
	}
}

func TestGetSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("agent_id") != "agent_123" {
			t.Errorf("agent_id 查询参数缺失: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"signed_url": "wss://voice.example/s"})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).GetSignedURL(context.Background(), "agent_123")
	if err != nil {
		t.Fatalf("GetSignedURL 失败: %v", err)
	}
	if got != "wss://voice.example/s" {
		t.Errorf("signedURL = %q", got)
	}
}

func TestGetSessionHistoryLenientParsing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 混合不同版本的字段名：role/source、message/content/text
		_, _ = w.Write([]byte(`{
			"conversation_history": [
				{"role": "user", "message": "Bonjour"},
				{"source": "ai", "content": "Bonjour, que puis-je faire ?"},
				{"role": "agent", "text": "Je vous écoute"}
			],
			"duration_seconds": 180
		}`))
	}))
	defer srv.Close()

	history, err := newTestClient(srv.URL).GetSessionHistory(context.Background(), "agent_123")
	if err != nil {
		t.Fatalf("GetSessionHistory 失败: %v", err)
	}
	if history.DurationSeconds != 180 {
		t.Errorf("duration = %d, want 180", history.DurationSeconds)
	}
	if len(history.Turns) != 3 {
		t.Fatalf("turns = %d, want 3", len(history.Turns))
	}
	if history.Turns[0].Role != model.TurnRoleUser || history.Turns[0].Content != "Bonjour" {
		t.Errorf("turn[0] 不符: %+v", history.Turns[0])
	}
	// 非 user 的角色一律归一化为 assistant
	if history.Turns[1].Role != model.TurnRoleAssistant || history.Turns[2].Role != model.TurnRoleAssistant {
		t.Error("非 user 角色应归一化为 assistant")
	}
	if history.Turns[2].Content != "Je vous écoute" {
		t.Errorf("text 字段应被识别: %+v", history.Turns[2])
	}
}

func TestHasAPIKey(t *testing.T) {
	if NewClient(config.VoiceConfig{}).HasAPIKey() {
		t.Error("未配置凭证时应返回 false")
	}
	if !newTestClient("http://example.com").HasAPIKey() {
		t.Error("已配置凭证时应返回 true")
	}
}
