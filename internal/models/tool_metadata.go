package models

// ToolMetadata 包含了向模型声明一个工具能力所需的全部信息。
type ToolMetadata struct {
	Name        string  `json:"name"`        // 工具的唯一名称，用作调用标识符
	Description string  `json:"description"` // 对工具能力的总体描述
	InputSchema *Schema `json:"inputSchema"` // 工具输入参数的 Schema 定义
}

// Schema 定义了工具输入参数结构，兼容OpenAPI 3.0.3规范。
type Schema struct {
	Type        string             `json:"type"`                  // 参数类型 (e.g., "object", "string", "number")
	Properties  map[string]*Schema `json:"properties,omitempty"`  // 如果类型是 "object", 定义其属性
	Required    []string           `json:"required,omitempty"`    // "object" 类型中的必需属性列表
	Description string             `json:"description,omitempty"` // 参数的描述
	Enum        []string           `json:"enum,omitempty"`        // 如果类型是 "string", 可选的枚举值
	Items       *Schema            `json:"items,omitempty"`       // 如果类型是 "array", 定义数组元素的类型
}
