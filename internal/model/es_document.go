// Package model 包含了应用的数据模型定义。
package model

// SimulationDocument 是归档到 Elasticsearch 的模拟会话摘要文档。
type SimulationDocument struct {
	ConversationID uint   `json:"conversation_id"`
	UserID         uint   `json:"user_id"`
	AgentName      string `json:"agent_name"`
	ProductName    string `json:"product_name"`
	CallType       string `json:"call_type"`
	Goal           string `json:"goal"`
	Note           int    `json:"note"`
	// TranscriptText 是展平后的全文转写，供全文检索使用。
	TranscriptText  string `json:"transcript_text"`
	DurationSeconds int    `json:"duration_seconds"`
	EndedAt         string `json:"ended_at"`
}

// SimulationSearchHit 是检索接口返回给前端的单条结果。
type SimulationSearchHit struct {
	ConversationID uint    `json:"conversationId"`
	AgentName      string  `json:"agentName"`
	ProductName    string  `json:"productName"`
	CallType       string  `json:"callType"`
	Note           int     `json:"note"`
	Score          float64 `json:"score"`
	Snippet        string  `json:"snippet"`
}
