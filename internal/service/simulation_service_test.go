package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"salescoach-go/pkg/tasks"
	"salescoach-go/pkg/voice"
	"testing"
)

type simulationFixture struct {
	conversationRepo *fakeConversationRepo
	liveRepo         *fakeLiveRepo
	voiceClient      *fakeVoiceClient
	feedbackRepo     *fakeFeedbackRepo
	published        []tasks.SessionArchiveTask
	publishErr       error
	svc              SimulationService
	user             *model.User
}

func newSimulationFixture(remoteSessionID string) *simulationFixture {
	f := &simulationFixture{
		conversationRepo: newFakeConversationRepo(&model.Conversation{
			ID:              11,
			UserID:          7,
			CallType:        model.CallTypeColdCall,
			Goal:            "obtenir un rendez-vous",
			RemoteSessionID: remoteSessionID,
		}),
		liveRepo:     newFakeLiveRepo(),
		voiceClient:  &fakeVoiceClient{hasKey: true},
		feedbackRepo: &fakeFeedbackRepo{},
		user:         &model.User{ID: 7, Username: "alice"},
	}
	feedbackService := NewFeedbackService(f.feedbackRepo, f.conversationRepo,
		&fakeLLMClient{response: validFeedbackJSON})
	f.svc = NewSimulationService(f.conversationRepo, f.liveRepo, f.voiceClient, feedbackService,
		func(task tasks.SessionArchiveTask) error {
			f.published = append(f.published, task)
			return f.publishErr
		})
	return f
}

func clientTurns() []model.TranscriptTurn {
	return []model.TranscriptTurn{
		{Role: model.TurnRoleUser, Content: "Bonjour, j'aimerais vous présenter notre solution."},
		{Role: model.TurnRoleAssistant, Content: "Allez-y, je vous écoute."},
	}
}

func TestEndSimulationWithClientTranscript(t *testing.T) {
	f := newSimulationFixture("agent_abc")

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, clientTurns(), 300)
	if err != nil {
		t.Fatalf("EndSimulation 失败: %v", err)
	}
	if len(result.Transcript) != 2 {
		t.Errorf("应使用客户端上报的转写, got %d turns", len(result.Transcript))
	}
	if result.Feedback == nil || result.Feedback.Note != 85 {
		t.Error("应返回解析后的反馈")
	}
	if result.Warning {
		t.Error("正常链路不应带 warning")
	}
	if f.conversationRepo.savedDuration != 300 {
		t.Errorf("持久化时长 = %d, want 300", f.conversationRepo.savedDuration)
	}
	if f.voiceClient.historyCalled != 0 {
		t.Error("客户端已上报时不应拉取服务商历史")
	}
	if f.liveRepo.clearedID != 11 {
		t.Error("实时镜像应被清理")
	}
	if len(f.published) != 1 || f.published[0].ConversationID != 11 || f.published[0].UserID != 7 {
		t.Errorf("归档任务不符: %+v", f.published)
	}
}

func TestEndSimulationFallsBackToLiveMirror(t *testing.T) {
	f := newSimulationFixture("agent_abc")
	f.liveRepo.turns[11] = []model.TranscriptTurn{
		{Role: model.TurnRoleUser, Content: "depuis le miroir"},
	}

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, nil, 120)
	if err != nil {
		t.Fatalf("EndSimulation 失败: %v", err)
	}
	if len(result.Transcript) != 1 || result.Transcript[0].Content != "depuis le miroir" {
		t.Errorf("应回退到实时镜像, got %+v", result.Transcript)
	}
	if f.voiceClient.historyCalled != 0 {
		t.Error("镜像命中时不应拉取服务商历史")
	}
}

func TestEndSimulationFallsBackToProviderHistory(t *testing.T) {
	f := newSimulationFixture("agent_abc")
	f.voiceClient.history = &voice.SessionHistory{
		Turns: []model.TranscriptTurn{
			{Role: model.TurnRoleAssistant, Content: "depuis le fournisseur"},
		},
		DurationSeconds: 450,
	}

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, nil, 120)
	if err != nil {
		t.Fatalf("EndSimulation 失败: %v", err)
	}
	if len(result.Transcript) != 1 || result.Transcript[0].Content != "depuis le fournisseur" {
		t.Errorf("应回退到服务商历史, got %+v", result.Transcript)
	}
	if f.conversationRepo.savedDuration != 450 {
		t.Errorf("应采用服务商侧时长, got %d", f.conversationRepo.savedDuration)
	}
}

func TestEndSimulationMirrorReadFailureFallsThrough(t *testing.T) {
	f := newSimulationFixture("agent_abc")
	f.liveRepo.getTurnsErr = errors.New("redis indisponible")
	f.voiceClient.history = &voice.SessionHistory{
		Turns: []model.TranscriptTurn{
			{Role: model.TurnRoleUser, Content: "depuis le fournisseur"},
		},
	}

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, nil, 120)
	if err != nil {
		t.Fatalf("镜像读取失败不应中断收口: %v", err)
	}
	if len(result.Transcript) != 1 || result.Transcript[0].Content != "depuis le fournisseur" {
		t.Errorf("镜像不可用时应继续走服务商兜底, got %+v", result.Transcript)
	}
}

func TestEndSimulationProviderHistoryFailureIsDiscarded(t *testing.T) {
	f := newSimulationFixture("agent_abc")
	f.voiceClient.historyErr = apperr.NewUpstream("voice", 500, "boom")

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, nil, 120)
	if err != nil {
		t.Fatalf("兜底失败不应中断收口: %v", err)
	}
	if len(result.Transcript) != 0 {
		t.Errorf("兜底失败时应得到空转写, got %+v", result.Transcript)
	}
	if result.Feedback == nil {
		t.Error("空转写也应生成反馈")
	}
}

func TestEndSimulationSkipsHistoryWhenNeverStarted(t *testing.T) {
	f := newSimulationFixture("")

	if _, err := f.svc.EndSimulation(context.Background(), f.user, 11, nil, 120); err != nil {
		t.Fatalf("EndSimulation 失败: %v", err)
	}
	if f.voiceClient.historyCalled != 0 {
		t.Error("从未启动的会话不应拉取服务商历史")
	}
}

func TestEndSimulationTranscriptSaveFailureIsNonFatal(t *testing.T) {
	f := newSimulationFixture("agent_abc")
	f.conversationRepo.saveErr = errors.New("db indisponible")

	result, err := f.svc.EndSimulation(context.Background(), f.user, 11, clientTurns(), 300)
	if err != nil {
		t.Fatalf("转写持久化失败不应中断: %v", err)
	}
	if result.Feedback == nil {
		t.Error("反馈生成应继续")
	}
}

func TestEndSimulationConversationNotFound(t *testing.T) {
	f := newSimulationFixture("agent_abc")

	if _, err := f.svc.EndSimulation(context.Background(), f.user, 999, nil, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("缺失会话应返回 ErrNotFound, got %v", err)
	}

	stranger := &model.User{ID: 42}
	if _, err := f.svc.EndSimulation(context.Background(), stranger, 11, nil, 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("他人会话应返回 ErrNotFound, got %v", err)
	}
}
