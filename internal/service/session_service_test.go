package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"testing"
)

func TestIssueCredentialSignedURL(t *testing.T) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7, RemoteSessionID: "agent_abc"})
	voiceClient := &fakeVoiceClient{hasKey: true, signedURL: "wss://voice.example/signed?token=xyz"}
	svc := NewSessionService(conversationRepo, voiceClient)

	cred, err := svc.IssueCredential(context.Background(), &model.User{ID: 7}, 11)
	if err != nil {
		t.Fatalf("IssueCredential 失败: %v", err)
	}
	if cred.SignedURL != "wss://voice.example/signed?token=xyz" {
		t.Errorf("signedUrl 不符: %q", cred.SignedURL)
	}
	if cred.AgentID != "agent_abc" {
		t.Errorf("agentId 不符: %q", cred.AgentID)
	}
	if cred.DirectUse {
		t.Error("有服务商凭证时不应降级为 directUse")
	}
}

func TestIssueCredentialDirectUseWithoutAPIKey(t *testing.T) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7, RemoteSessionID: "agent_abc"})
	svc := NewSessionService(conversationRepo, &fakeVoiceClient{hasKey: false})

	cred, err := svc.IssueCredential(context.Background(), &model.User{ID: 7}, 11)
	if err != nil {
		t.Fatalf("IssueCredential 失败: %v", err)
	}
	if !cred.DirectUse || cred.AgentID != "agent_abc" || cred.SignedURL != "" {
		t.Errorf("应降级为 directUse 模式, got %+v", cred)
	}
}

func TestIssueCredentialFallsBackToUserAgent(t *testing.T) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7})
	voiceClient := &fakeVoiceClient{hasKey: true, signedURL: "wss://voice.example/signed"}
	svc := NewSessionService(conversationRepo, voiceClient)

	cred, err := svc.IssueCredential(context.Background(), &model.User{ID: 7, RemoteAgentID: "agent_user"}, 11)
	if err != nil {
		t.Fatalf("IssueCredential 失败: %v", err)
	}
	if cred.AgentID != "agent_user" {
		t.Errorf("未启动会话应退回用户级代理, got %q", cred.AgentID)
	}
}

func TestIssueCredentialSignedURLFailure(t *testing.T) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7, RemoteSessionID: "agent_abc"})
	voiceClient := &fakeVoiceClient{hasKey: true, signedURLErr: apperr.NewUpstream("voice", 500, "boom")}
	svc := NewSessionService(conversationRepo, voiceClient)

	// 签名地址单次有效，失败直接上抛，不降级也不重试
	_, err := svc.IssueCredential(context.Background(), &model.User{ID: 7}, 11)
	if !apperr.IsUpstream(err) {
		t.Fatalf("签名地址换取失败应透传 UpstreamError, got %v", err)
	}
}

func TestIssueCredentialPreconditionWithoutAgent(t *testing.T) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7})
	svc := NewSessionService(conversationRepo, &fakeVoiceClient{hasKey: true})

	_, err := svc.IssueCredential(context.Background(), &model.User{ID: 7}, 11)
	if !errors.Is(err, apperr.ErrPrecondition) {
		t.Fatalf("代理未开通应返回 ErrPrecondition, got %v", err)
	}
}

func TestIssueCredentialConversationNotFound(t *testing.T) {
	svc := NewSessionService(newFakeConversationRepo(), &fakeVoiceClient{hasKey: true})

	_, err := svc.IssueCredential(context.Background(), &model.User{ID: 7}, 11)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("缺失会话应返回 ErrNotFound, got %v", err)
	}
}
