package models

import (
	"time"

	"gorm.io/datatypes"
)

// Agent 是一个配置好的 LLM 角色，包含人设、私有语料标记与可用工具。
// 任务一旦开始执行，Agent 即视为不可变，仅由持久化层持有。
type Agent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Role      string `gorm:"type:text" json:"role"`      // Agent 扮演的角色
	Goal      string `gorm:"type:text" json:"goal"`      // Agent 的目标描述
	Backstory string `gorm:"type:text" json:"backstory"` // Agent 的背景设定

	// OwnData 表示该 Agent 是否挂载了私有文档语料。
	// 为 true 时 VectorID 必须指向向量索引中的命名空间。
	OwnData  bool   `gorm:"column:own_data" json:"own_data"`
	VectorID string `gorm:"column:vector_id" json:"vector_id"`

	// 以下四个画像字段由 Prompt Builder 原样注入提示词，允许为空。
	FocusGroupSurvey string `gorm:"type:text;column:focus_group_survey" json:"focus_group_survey"`
	TopIdea          string `gorm:"type:text;column:top_idea" json:"top_idea"`
	APIData          string `gorm:"type:text;column:api_data" json:"api_data"`
	Survey           string `gorm:"type:text" json:"survey"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定 Agent 对应的表名。
func (Agent) TableName() string { return "agents" }

// Task 是一个可复用的任务定义，归属于某个 Agent。
// 多次执行同一个 Task 会产生多条 CompletedTask 记录。
type Task struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AgentInstruction string `gorm:"type:text;column:agent_instruction" json:"agent_instruction"` // 任务指令模板
	AgentOutput      string `gorm:"type:text;column:agent_output" json:"agent_output"`           // 期望输出的描述

	// AgentTool 是序列化后的工具 ID 列表 (JSON 数组)。
	AgentTool datatypes.JSON `gorm:"column:agent_tool" json:"agent_tool"`
	// AgentParameter 是序列化后的命名参数映射 (JSON 对象)，允许为空。
	AgentParameter datatypes.JSON `gorm:"column:agent_parameter" json:"agent_parameter"`

	AssignTaskAgentID uint `gorm:"column:assign_task_agent_id" json:"assign_task_agent_id"` // 所属 Agent

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定 Task 对应的表名。
func (Task) TableName() string { return "tasks" }
