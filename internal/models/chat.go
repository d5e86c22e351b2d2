package models

import "time"

// ChatEntry 是聊天会话中的一轮问答，追加写入 MongoDB 会话文档。
type ChatEntry struct {
	Query     string    `bson:"query" json:"query"`
	Response  string    `bson:"response" json:"response"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ChatSession 是一个持久化的聊天会话文档。
type ChatSession struct {
	ID        string      `bson:"_id" json:"id"`
	AgentID   uint        `bson:"agent_id" json:"agent_id"`
	Chat      []ChatEntry `bson:"chat" json:"chat"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}
