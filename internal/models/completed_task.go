package models

import "time"

// TaskStatus 定义了一次任务执行的终态编码。
type TaskStatus int

const (
	TaskStatusPending TaskStatus = 0 // 已派发，尚未完成
	TaskStatusSuccess TaskStatus = 1 // 执行成功
	TaskStatusFailed  TaskStatus = 2 // 执行失败
)

// MarkAs 定义了执行记录的标记状态，用于区分普通完成与重派相关状态。
type MarkAs int

const (
	MarkAsNone            MarkAs = 0 // 无标记
	MarkAsCompleted       MarkAs = 1 // 正常完成
	MarkAsReassignFailed  MarkAs = 2 // 重派执行失败
	MarkAsReassignPending MarkAs = 3 // 已请求重派，等待执行
)

// CompletedTask 是一次任务执行的权威记录。
// 每次执行尝试对应唯一一条记录；同一条记录不允许并发执行，
// 由派发方（API 层）负责串行化。
type CompletedTask struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	TaskID uint       `gorm:"column:task_id" json:"task_id"` // 来源 Task
	Status TaskStatus `gorm:"column:status" json:"status"`
	MarkAs MarkAs     `gorm:"column:mark_as" json:"mark_as"`

	Output   string `gorm:"type:longtext" json:"output"`            // 主要结果文本
	Comment  string `gorm:"type:text" json:"comment"`               // 一句话完成确认
	FilePath string `gorm:"column:file_path" json:"file_path"`      // 导出产物 URL，可为空
	// ReasonForReassign 在消费方请求重做时写入，重派流程要求其非空。
	ReasonForReassign string `gorm:"type:text;column:reason_for_reassign" json:"reason_for_reassign"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定 CompletedTask 对应的表名。
func (CompletedTask) TableName() string { return "completed_tasks" }

// CompletedTaskFile 是附着在 CompletedTask 上的产物引用，仅在导出成功时创建。
type CompletedTaskFile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CompletedTaskID uint      `gorm:"column:completed_task_id" json:"completed_task_id"`
	URL             string    `gorm:"type:text" json:"url"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName 指定 CompletedTaskFile 对应的表名。
func (CompletedTaskFile) TableName() string { return "completed_task_files" }
