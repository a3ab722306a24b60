// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// SessionArchiveTask represents the data structure for an end-of-session archive job.
type SessionArchiveTask struct {
	ConversationID uint   `json:"conversation_id"`
	UserID         uint   `json:"user_id"`
	EndedAt        string `json:"ended_at"`
}
