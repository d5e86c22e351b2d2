package llm

import (
	"Colabi/internal/models"
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI 是一个用于 OpenAI API 的 LLM 客户端。
type OpenAI struct {
	client *openai.Client // OpenAI 客户端实例。
	model  string         // 要使用的模型名称。
	tools  []openai.Tool  // 为该客户端配置的工具列表
}

// NewOpenAI 创建一个新的 OpenAI 客户端。
func NewOpenAI(model string, apiKey string, tools []openai.Tool) (*OpenAI, error) {
	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)
	return &OpenAI{
		client: client,
		model:  model,
		tools:  tools,
	}, nil
}

// GenerateContent 使用 OpenAI API 生成内容。
func (o *OpenAI) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	openaiReq := o.toOpenAIRequest(req)

	// 如果配置了工具，则添加到请求中
	if len(o.tools) > 0 {
		openaiReq.Tools = o.tools
	}

	resp, err := o.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	return o.toGenerateContentResponse(&resp), nil
}

// GenerateContentStream 使用 OpenAI API 以流式方式生成内容。
func (o *OpenAI) GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error) {
	openaiReq := o.toOpenAIRequest(req)

	if len(o.tools) > 0 {
		openaiReq.Tools = o.tools
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion stream: %w", err)
	}

	respChan := make(chan *models.GenerateContentResponse)

	go func() {
		defer close(respChan)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err != nil {
				return
			}
			respChan <- o.toGenerateContentResponseStream(&resp)
		}
	}()

	return respChan, nil
}

// toOpenAIRequest 将我们的内部请求格式转换为 OpenAI 格式。
func (o *OpenAI) toOpenAIRequest(req *models.GenerateContentRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, content := range req.Content {
		msg := openai.ChatCompletionMessage{Role: toOpenAIRole(content.Role)}
		for _, part := range content.Parts {
			switch {
			case part.FunctionCall != nil:
				// 模型先前发出的工具调用，作为 assistant 消息回放。
				args, _ := json.Marshal(part.FunctionCall.Args)
				msg.Role = openai.ChatMessageRoleAssistant
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   part.FunctionCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			case part.FunctionResponse != nil:
				// 工具调用结果作为独立的 tool 消息发送。
				body, _ := json.Marshal(part.FunctionResponse.Response)
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(body),
					Name:       part.FunctionResponse.Name,
					ToolCallID: part.FunctionResponse.ID,
				})
				continue
			default:
				msg.Content += part.Text
			}
		}
		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
		}
	}

	return openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
}

// toOpenAIRole 将内部角色映射为 OpenAI 的消息角色。
func toOpenAIRole(role models.SpeakerRole) string {
	switch role {
	case models.SpeakerModel, models.SpeakerAssistant:
		return openai.ChatMessageRoleAssistant
	case models.SpeakerTool:
		return openai.ChatMessageRoleTool
	case models.SpeakerSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// toGenerateContentResponse 将 OpenAI 响应转换为我们的内部格式。
func (o *OpenAI) toGenerateContentResponse(resp *openai.ChatCompletionResponse) *models.GenerateContentResponse {
	var content []models.Content
	for _, choice := range resp.Choices {
		var parts []*models.Part
		if choice.Message.Content != "" {
			parts = append(parts, &models.Part{Text: choice.Message.Content})
		}
		for _, tc := range choice.Message.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			parts = append(parts, &models.Part{
				FunctionCall: &models.FunctionCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: args,
				},
			})
		}
		content = append(content, models.Content{
			Parts: parts,
			Role:  models.SpeakerModel,
		})
	}

	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}
}

// toGenerateContentResponseStream 将 OpenAI 流式响应转换为我们的内部格式。
func (o *OpenAI) toGenerateContentResponseStream(resp *openai.ChatCompletionStreamResponse) *models.GenerateContentResponse {
	var content []models.Content
	for _, choice := range resp.Choices {
		content = append(content, models.Content{
			Parts: []*models.Part{
				{Text: choice.Delta.Content},
			},
			Role: models.SpeakerModel,
		})
	}

	return &models.GenerateContentResponse{
		Content:      content,
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}
}
