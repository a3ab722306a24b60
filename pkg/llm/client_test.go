package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/config"
	"testing"
)

func TestCompleteReturnsContent(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization 头不符: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"réponse du modèle"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	temperature := 0.1
	maxTokens := 2000
	got, err := client.Complete(context.Background(),
		[]Message{{Role: "user", Content: "analyse"}},
		&GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens})
	if err != nil {
		t.Fatalf("Complete 失败: %v", err)
	}
	if got != "réponse du modèle" {
		t.Errorf("content = %q", got)
	}
	if gotBody.Model != "gpt-4o-mini" || gotBody.Stream {
		t.Errorf("请求体不符: %+v", gotBody)
	}
	if gotBody.Temperature == nil || *gotBody.Temperature != 0.1 {
		t.Error("传参温度应生效")
	}
	if gotBody.MaxTokens == nil || *gotBody.MaxTokens != 2000 {
		t.Error("传参 max_tokens 应生效")
	}
}

func TestCompleteUsesConfigGenerationDefaults(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{
		BaseURL: srv.URL,
		Model:   "gpt-4o-mini",
		Generation: config.LLMGenerationConfig{Temperature: 0.3, TopP: 0.9, MaxTokens: 2048},
	})
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "salut"}}, nil); err != nil {
		t.Fatalf("Complete 失败: %v", err)
	}
	if gotBody.Temperature == nil || *gotBody.Temperature != 0.3 {
		t.Error("配置温度应生效")
	}
	if gotBody.TopP == nil || *gotBody.TopP != 0.9 {
		t.Error("配置 top_p 应生效")
	}
	if gotBody.MaxTokens == nil || *gotBody.MaxTokens != 2048 {
		t.Error("配置 max_tokens 应生效")
	}
}

func TestCompleteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("非 200 应转换为 UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", ue.Status)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, nil); !apperr.IsUpstream(err) {
		t.Fatalf("空 choices 应报 UpstreamError, got %v", err)
	}
}
