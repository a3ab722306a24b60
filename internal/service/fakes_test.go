package service

import (
	"context"
	"errors"
	"salescoach-go/internal/model"
	"salescoach-go/pkg/llm"
	"salescoach-go/pkg/voice"

	"gorm.io/gorm"
)

// 本文件集中存放服务层单测用的手写替身。

type fakeUserRepo struct {
	users          map[uint]*model.User
	setAgentCalls  int
	failSetAgentID bool
	// raceAgentID 非空时模拟条件写竞争失败：另一个请求抢先写入了该标识。
	raceAgentID string
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := make(map[uint]*model.User)
	for _, u := range users {
		copied := *u
		m[u.ID] = &copied
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SetRemoteAgentID(userID uint, agentID string) (bool, error) {
	r.setAgentCalls++
	if r.failSetAgentID {
		return false, errors.New("db indisponible")
	}
	u, ok := r.users[userID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if r.raceAgentID != "" {
		u.RemoteAgentID = r.raceAgentID
		return false, nil
	}
	if u.RemoteAgentID != "" {
		return false, nil
	}
	u.RemoteAgentID = agentID
	return true, nil
}

func (r *fakeUserRepo) FindWithPagination(offset, limit int) ([]model.User, int64, error) {
	return nil, 0, nil
}

type fakeConversationRepo struct {
	conversations   map[uint]*model.Conversation
	assignCalls     int
	savedTranscript model.Transcript
	savedDuration   int
	saveErr         error
	linkedFeedback  uint
}

func newFakeConversationRepo(conversations ...*model.Conversation) *fakeConversationRepo {
	m := make(map[uint]*model.Conversation)
	for _, c := range conversations {
		m[c.ID] = c
	}
	return &fakeConversationRepo{conversations: m}
}

func (r *fakeConversationRepo) Create(conversation *model.Conversation) error {
	r.conversations[conversation.ID] = conversation
	return nil
}

func (r *fakeConversationRepo) FindByIDAndUser(conversationID, userID uint) (*model.Conversation, error) {
	c, ok := r.conversations[conversationID]
	if !ok || c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeConversationRepo) FindByIDAndUserWithJoins(conversationID, userID uint) (*model.Conversation, error) {
	return r.FindByIDAndUser(conversationID, userID)
}

func (r *fakeConversationRepo) FindByIDWithJoins(conversationID uint) (*model.Conversation, error) {
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeConversationRepo) FindByUser(userID uint) ([]model.Conversation, error) {
	var result []model.Conversation
	for _, c := range r.conversations {
		if c.UserID == userID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *fakeConversationRepo) AssignRemoteSessionID(conversationID uint, sessionID string) (bool, error) {
	r.assignCalls++
	c, ok := r.conversations[conversationID]
	if !ok {
		return false, nil
	}
	if c.RemoteSessionID != "" {
		return false, nil
	}
	c.RemoteSessionID = sessionID
	return true, nil
}

func (r *fakeConversationRepo) SaveTranscript(conversationID uint, transcript model.Transcript, durationSeconds int) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.savedTranscript = transcript
	r.savedDuration = durationSeconds
	if c, ok := r.conversations[conversationID]; ok {
		c.Transcript = transcript
		c.DurationSeconds = durationSeconds
	}
	return nil
}

func (r *fakeConversationRepo) LinkFeedback(conversationID, feedbackID uint) error {
	r.linkedFeedback = feedbackID
	if c, ok := r.conversations[conversationID]; ok {
		c.FeedbackID = &feedbackID
	}
	return nil
}

func (r *fakeConversationRepo) FindWithPagination(offset, limit int) ([]model.Conversation, int64, error) {
	return nil, 0, nil
}

type fakeLiveRepo struct {
	turns        map[uint][]model.TranscriptTurn
	tokens       map[string][2]uint
	lockHeld     bool
	denyLock     bool
	clearedID    uint
	getTurnsErr  error
	appendedSeen int
}

func newFakeLiveRepo() *fakeLiveRepo {
	return &fakeLiveRepo{
		turns:  make(map[uint][]model.TranscriptTurn),
		tokens: make(map[string][2]uint),
	}
}

func (r *fakeLiveRepo) SaveWsToken(ctx context.Context, token string, userID, conversationID uint) error {
	r.tokens[token] = [2]uint{userID, conversationID}
	return nil
}

func (r *fakeLiveRepo) ConsumeWsToken(ctx context.Context, token string) (uint, uint, error) {
	ids, ok := r.tokens[token]
	if !ok {
		return 0, 0, errors.New("ws token inconnu ou expiré")
	}
	delete(r.tokens, token)
	return ids[0], ids[1], nil
}

func (r *fakeLiveRepo) AppendTurn(ctx context.Context, conversationID uint, turn model.TranscriptTurn) error {
	r.appendedSeen++
	r.turns[conversationID] = append(r.turns[conversationID], turn)
	return nil
}

func (r *fakeLiveRepo) GetTurns(ctx context.Context, conversationID uint) ([]model.TranscriptTurn, error) {
	if r.getTurnsErr != nil {
		return nil, r.getTurnsErr
	}
	return r.turns[conversationID], nil
}

func (r *fakeLiveRepo) ClearTurns(ctx context.Context, conversationID uint) error {
	r.clearedID = conversationID
	delete(r.turns, conversationID)
	return nil
}

func (r *fakeLiveRepo) AcquireProvisionLock(ctx context.Context, userID uint) (bool, error) {
	if r.denyLock {
		return false, nil
	}
	if r.lockHeld {
		return false, nil
	}
	r.lockHeld = true
	return true, nil
}

func (r *fakeLiveRepo) ReleaseProvisionLock(ctx context.Context, userID uint) error {
	r.lockHeld = false
	return nil
}

type fakeVoiceClient struct {
	hasKey        bool
	createCalls   int
	createErr     error
	createdAgent  string
	updateCalls   int
	updateErr     error
	lastUpdate    voice.AgentUpdate
	signedURL     string
	signedURLErr  error
	history       *voice.SessionHistory
	historyErr    error
	historyCalled int
}

func (c *fakeVoiceClient) CreateAgent(ctx context.Context, name, voiceID, prompt string) (string, error) {
	c.createCalls++
	if c.createErr != nil {
		return "", c.createErr
	}
	if c.createdAgent == "" {
		c.createdAgent = "agent_test_1"
	}
	return c.createdAgent, nil
}

func (c *fakeVoiceClient) UpdateAgent(ctx context.Context, agentID string, update voice.AgentUpdate) error {
	c.updateCalls++
	c.lastUpdate = update
	return c.updateErr
}

func (c *fakeVoiceClient) GetSignedURL(ctx context.Context, agentID string) (string, error) {
	if c.signedURLErr != nil {
		return "", c.signedURLErr
	}
	return c.signedURL, nil
}

func (c *fakeVoiceClient) GetSessionHistory(ctx context.Context, sessionID string) (*voice.SessionHistory, error) {
	c.historyCalled++
	if c.historyErr != nil {
		return nil, c.historyErr
	}
	return c.history, nil
}

func (c *fakeVoiceClient) HasAPIKey() bool {
	return c.hasKey
}

type fakeFeedbackRepo struct {
	created   *model.Feedback
	createErr error
	nextID    uint
}

func (r *fakeFeedbackRepo) Create(feedback *model.Feedback) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.nextID == 0 {
		r.nextID = 1
	}
	feedback.ID = r.nextID
	r.created = feedback
	return nil
}

func (r *fakeFeedbackRepo) FindByConversationID(conversationID uint) (*model.Feedback, error) {
	if r.created == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.created, nil
}

type fakeLLMClient struct {
	response string
	err      error
	calls    int
	lastGen  *llm.GenerationParams
}

func (c *fakeLLMClient) Complete(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	c.calls++
	c.lastGen = gen
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}
