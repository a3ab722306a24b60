package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"strings"
	"testing"
)

func provisionFixture() (*fakeUserRepo, *fakeConversationRepo, *fakeLiveRepo, *fakeVoiceClient, ProvisionService, *model.User) {
	userID := uint(7)
	user := &model.User{ID: userID, Username: "alice"}
	agent := &model.Agent{ID: 3, UserID: &userID, Name: "Marc", JobTitle: "Directeur", Difficulty: model.DifficultyHard}
	product := &model.Product{ID: 5, UserID: userID, Name: "CRM Pro"}
	conversation := &model.Conversation{
		ID:        11,
		UserID:    userID,
		AgentID:   agent.ID,
		ProductID: product.ID,
		CallType:  model.CallTypeColdCall,
		Goal:      "obtenir un rendez-vous",
		Agent:     agent,
		Product:   product,
	}

	userRepo := newFakeUserRepo(user)
	conversationRepo := newFakeConversationRepo(conversation)
	liveRepo := newFakeLiveRepo()
	voiceClient := &fakeVoiceClient{hasKey: true}
	svc := NewProvisionService(userRepo, conversationRepo, liveRepo, voiceClient, nil, "default-voice", 1800)
	return userRepo, conversationRepo, liveRepo, voiceClient, svc, user
}

func TestEnsureRemoteAgentCreatesOnce(t *testing.T) {
	_, _, _, voiceClient, svc, user := provisionFixture()

	first, err := svc.EnsureRemoteAgent(context.Background(), user)
	if err != nil {
		t.Fatalf("首次开通失败: %v", err)
	}
	if first == "" {
		t.Fatal("应返回服务商代理标识")
	}

	// 第二次必须在已存储的标识上短路，不再触发创建
	second, err := svc.EnsureRemoteAgent(context.Background(), user)
	if err != nil {
		t.Fatalf("二次调用失败: %v", err)
	}
	if second != first {
		t.Errorf("二次调用应复用同一标识, got %q want %q", second, first)
	}
	if voiceClient.createCalls != 1 {
		t.Errorf("服务商创建应只发生一次, got %d", voiceClient.createCalls)
	}
}

func TestEnsureRemoteAgentReusesStoredID(t *testing.T) {
	userRepo, _, _, voiceClient, svc, user := provisionFixture()

	// 数据库里已经存有标识，但内存里的 user 对象还没刷新
	userRepo.users[user.ID].RemoteAgentID = "agent_existing"

	got, err := svc.EnsureRemoteAgent(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureRemoteAgent 失败: %v", err)
	}
	if got != "agent_existing" {
		t.Errorf("应复用已存储标识, got %q", got)
	}
	if voiceClient.createCalls != 0 {
		t.Errorf("不应触发服务商创建, got %d", voiceClient.createCalls)
	}
}

func TestEnsureRemoteAgentWaitsOutConcurrentProvision(t *testing.T) {
	userRepo, _, liveRepo, voiceClient, svc, user := provisionFixture()

	// 互斥锁被另一个请求持有，对方随后完成创建并写入了标识
	liveRepo.denyLock = true
	userRepo.users[user.ID].RemoteAgentID = "agent_winner"

	got, err := svc.EnsureRemoteAgent(context.Background(), user)
	if err != nil {
		t.Fatalf("等待并发开通失败: %v", err)
	}
	if got != "agent_winner" {
		t.Errorf("应采用并发请求创建的标识, got %q", got)
	}
	// 拿不到锁的一方绝不能自己去建第二个代理
	if voiceClient.createCalls != 0 {
		t.Errorf("锁竞争失败方不应触发服务商创建, got %d", voiceClient.createCalls)
	}
}

func TestEnsureRemoteAgentAdoptsConcurrentWrite(t *testing.T) {
	userRepo, _, _, voiceClient, svc, user := provisionFixture()

	// 创建成功但条件写落败：锁过期后另一个请求先一步写入
	userRepo.raceAgentID = "agent_winner"

	got, err := svc.EnsureRemoteAgent(context.Background(), user)
	if err != nil {
		t.Fatalf("EnsureRemoteAgent 失败: %v", err)
	}
	if got != "agent_winner" {
		t.Errorf("条件写落败后应重读并采用对方的标识, got %q", got)
	}
	if user.RemoteAgentID != "agent_winner" {
		t.Errorf("内存对象应同步为对方的标识, got %q", user.RemoteAgentID)
	}
	if voiceClient.createCalls != 1 {
		t.Errorf("本方的创建调用应只发生一次, got %d", voiceClient.createCalls)
	}
}

func TestEnsureRemoteAgentPersistFailure(t *testing.T) {
	userRepo, _, _, _, svc, user := provisionFixture()
	userRepo.failSetAgentID = true

	if _, err := svc.EnsureRemoteAgent(context.Background(), user); err == nil {
		t.Fatal("持久化失败应上抛错误")
	}
	if user.RemoteAgentID != "" {
		t.Errorf("失败时不应在内存对象上留下标识, got %q", user.RemoteAgentID)
	}
}

func TestStartSimulationHappyPath(t *testing.T) {
	_, conversationRepo, _, voiceClient, svc, user := provisionFixture()

	result, err := svc.StartSimulation(context.Background(), user, 11)
	if err != nil {
		t.Fatalf("StartSimulation 失败: %v", err)
	}
	if result.AgentID == "" {
		t.Error("结果应携带代理标识")
	}
	if voiceClient.updateCalls != 1 {
		t.Errorf("应推送一次代理配置, got %d", voiceClient.updateCalls)
	}
	if conversationRepo.conversations[11].RemoteSessionID != result.AgentID {
		t.Error("守卫字段应绑定代理标识")
	}

	update := voiceClient.lastUpdate
	if update.MaxDurationSeconds != 1800 {
		t.Errorf("会话上限应为 1800, got %d", update.MaxDurationSeconds)
	}
	if !strings.Contains(update.Prompt, "Marc") {
		t.Error("提示词应包含画像姓名")
	}
	wantTags := []string{"sales", model.CallTypeColdCall, model.DifficultyHard}
	if len(update.Tags) != len(wantTags) {
		t.Fatalf("标签数量不符: %v", update.Tags)
	}
	for i, tag := range wantTags {
		if update.Tags[i] != tag {
			t.Errorf("标签[%d] = %q, want %q", i, update.Tags[i], tag)
		}
	}
}

func TestStartSimulationRejectsSecondStart(t *testing.T) {
	_, _, _, voiceClient, svc, user := provisionFixture()

	if _, err := svc.StartSimulation(context.Background(), user, 11); err != nil {
		t.Fatalf("首次启动失败: %v", err)
	}

	_, err := svc.StartSimulation(context.Background(), user, 11)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("二次启动应返回 ErrConflict, got %v", err)
	}
	// 启动守卫拒绝之后绝不能再打服务商
	if voiceClient.updateCalls != 1 {
		t.Errorf("二次启动不应触发第二次配置推送, got %d", voiceClient.updateCalls)
	}
}

func TestStartSimulationConversationNotFound(t *testing.T) {
	_, _, _, _, svc, user := provisionFixture()

	if _, err := svc.StartSimulation(context.Background(), user, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("缺失会话应返回 ErrNotFound, got %v", err)
	}

	// 归属不匹配同样按未找到处理
	stranger := &model.User{ID: 42, Username: "bob"}
	if _, err := svc.StartSimulation(context.Background(), stranger, 11); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("他人会话应返回 ErrNotFound, got %v", err)
	}
}

func TestStartSimulationUpstreamFailure(t *testing.T) {
	_, _, _, voiceClient, svc, user := provisionFixture()
	voiceClient.updateErr = apperr.NewUpstream("voice", 500, "boom")

	_, err := svc.StartSimulation(context.Background(), user, 11)
	if !apperr.IsUpstream(err) {
		t.Fatalf("服务商失败应透传 UpstreamError, got %v", err)
	}
}
