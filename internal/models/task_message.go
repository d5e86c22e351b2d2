package models

import "time"

// TaskMessageKind 区分 Kafka 任务消息的两种入口。
type TaskMessageKind string

const (
	TaskMessageExecute  TaskMessageKind = "execute"  // 首次执行
	TaskMessageReassign TaskMessageKind = "reassign" // 携带原因的重派执行
)

// TaskMessage 是经由 Kafka 派发的一个执行单元。
// HTTP 层发布后立即返回，不会等待执行完成。
type TaskMessage struct {
	Kind TaskMessageKind `json:"kind"`

	AgentID         uint `json:"agentID,omitempty"`
	TaskID          uint `json:"taskID,omitempty"`
	CompletedTaskID uint `json:"completedTaskID"`

	BaseURL               string `json:"baseURL,omitempty"`
	IncludePreviousOutput bool   `json:"includePreviousOutput,omitempty"`
	PreviousOutputIDs     []uint `json:"previousOutputIDs,omitempty"`
	ExportCSV             bool   `json:"exportCSV,omitempty"`
	ExportFormat          string `json:"exportFormat,omitempty"` // "csv" (默认) 或 "xlsx"

	CreatedAt time.Time `json:"createdAt"`
}

// ErrorInfo 是结构化日志中错误字段的载体。
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
