package models

// SpeakerRole 定义了消息发送者的角色。
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"      // 用户角色。
	SpeakerAssistant SpeakerRole = "assistant" // 助手角色。
	SpeakerTool      SpeakerRole = "tool"      // 工具角色。
	SpeakerModel     SpeakerRole = "model"     // 模型角色。
	SpeakerSystem    SpeakerRole = "system"    // 系统角色。
)

// Content 包含了构成单个消息的多个部分。
type Content struct {
	// 可选。构成单个消息的部分列表。
	Parts []*Part `json:"parts,omitempty"`
	// 可选。内容的生产者。
	Role SpeakerRole `json:"role,omitempty"`
}

// Part 定义了消息的单个部分：文本、函数调用或函数调用结果。
type Part struct {
	// 可选。文本部分。
	Text string `json:"text,omitempty"`
	// 可选。从模型返回的预测 FunctionCall。
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
	// 可选。FunctionCall 的结果输出，用作模型的上下文。
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall 包含了模型预测的函数调用信息。
type FunctionCall struct {
	// 可选。函数调用的唯一 ID，客户端执行后需在响应中回填。
	ID string `json:"id,omitempty"`
	// 可选。JSON 对象格式的函数参数和值。
	Args map[string]any `json:"args,omitempty"`
	// 必填。要调用的函数名称。
	Name string `json:"name,omitempty"`
}

// FunctionResponse 包含了函数调用的结果输出。
type FunctionResponse struct {
	// 必填。函数名称，与 FunctionCall.Name 匹配。
	Name string `json:"name,omitempty"`
	// 可选。对应 FunctionCall 的 ID。
	ID string `json:"id,omitempty"`
	// 必填。结构化的函数输出。
	Response map[string]any `json:"response,omitempty"`
}

// GenerateContentRequest 定义了生成内容的请求结构。
type GenerateContentRequest struct {
	Content []Content `json:"content,omitempty"` // 请求的内容列表。
	System  string    `json:"system,omitempty"`  // 可选的系统指令。
}

// GenerateContentResponse 定义了生成内容的响应结构。
type GenerateContentResponse struct {
	Content      []Content `json:"content,omitempty"`      // 响应的内容列表。
	ResponseID   string    `json:"responseId,omitempty"`   // 响应ID。
	ModelVersion string    `json:"modelVersion,omitempty"` // 模型版本。
}

// First 返回响应中的第一条内容；响应为空时返回零值。
func (r *GenerateContentResponse) First() Content {
	if r == nil || len(r.Content) == 0 {
		return Content{}
	}
	return r.Content[0]
}

// HasFunctionCall 报告该条内容中是否包含至少一个函数调用。
func (c Content) HasFunctionCall() bool {
	for _, p := range c.Parts {
		if p != nil && p.FunctionCall != nil {
			return true
		}
	}
	return false
}

// Text 拼接该条内容中的所有文本部分。
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if p != nil {
			out += p.Text
		}
	}
	return out
}
