package service

import (
	"context"
	"errors"
	"salescoach-go/internal/apperr"
	"salescoach-go/internal/model"
	"testing"
)

func liveFixture() (*fakeLiveRepo, LiveService) {
	conversationRepo := newFakeConversationRepo(&model.Conversation{ID: 11, UserID: 7})
	liveRepo := newFakeLiveRepo()
	return liveRepo, NewLiveService(conversationRepo, liveRepo)
}

func TestIssueWsTokenAndAttach(t *testing.T) {
	liveRepo, svc := liveFixture()

	wsToken, err := svc.IssueWsToken(context.Background(), &model.User{ID: 7}, 11)
	if err != nil {
		t.Fatalf("IssueWsToken 失败: %v", err)
	}
	if wsToken == "" {
		t.Fatal("应签发非空令牌")
	}

	userID, conversationID, err := svc.Attach(context.Background(), wsToken)
	if err != nil {
		t.Fatalf("Attach 失败: %v", err)
	}
	if userID != 7 || conversationID != 11 {
		t.Errorf("令牌绑定不符: userID=%d, conversationID=%d", userID, conversationID)
	}

	// 令牌一次性：第二次消费必须失败
	if _, _, err := svc.Attach(context.Background(), wsToken); err == nil {
		t.Fatal("已消费的令牌不应再次生效")
	}
	if len(liveRepo.tokens) != 0 {
		t.Error("消费后令牌应被删除")
	}
}

func TestIssueWsTokenOwnership(t *testing.T) {
	_, svc := liveFixture()

	if _, err := svc.IssueWsToken(context.Background(), &model.User{ID: 42}, 11); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("他人会话应返回 ErrNotFound, got %v", err)
	}
	if _, err := svc.IssueWsToken(context.Background(), &model.User{ID: 7}, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("缺失会话应返回 ErrNotFound, got %v", err)
	}
}

func TestRecordTurnAppendsToMirror(t *testing.T) {
	liveRepo, svc := liveFixture()

	turns := []model.TranscriptTurn{
		{Role: model.TurnRoleUser, Content: "Bonjour"},
		{Role: model.TurnRoleAssistant, Content: "Je vous écoute"},
	}
	for _, turn := range turns {
		if err := svc.RecordTurn(context.Background(), 11, turn); err != nil {
			t.Fatalf("RecordTurn 失败: %v", err)
		}
	}

	if liveRepo.appendedSeen != 2 {
		t.Errorf("追加次数 = %d, want 2", liveRepo.appendedSeen)
	}
	// 镜像必须保持追加顺序
	mirrored := liveRepo.turns[11]
	if len(mirrored) != 2 || mirrored[0].Content != "Bonjour" || mirrored[1].Content != "Je vous écoute" {
		t.Errorf("镜像内容或顺序不符: %+v", mirrored)
	}
}
