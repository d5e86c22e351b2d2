package llm

import (
	"Colabi/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini 是一个实现了 LLM 接口的结构体，用于与 Gemini API 交互。
type Gemini struct {
	model *genai.GenerativeModel // Gemini 生成模型实例。
}

// NewGemini 创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, model, apiKey string, tools []*genai.FunctionDeclaration) (*Gemini, error) {
	// 使用 API 密钥创建 GenAI 客户端。
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	generativeModel := client.GenerativeModel(model)

	// 如果提供了工具，则进行配置
	if len(tools) > 0 {
		generativeModel.Tools = []*genai.Tool{{FunctionDeclarations: tools}}
	}

	return &Gemini{model: generativeModel}, nil
}

// GenerateContent 向 Gemini API 发送请求并返回响应。
// 请求中除最后一条内容外的部分作为会话历史回放。
func (g *Gemini) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	cs, last := g.newSession(req)
	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, err
	}
	return fromGenaiResponse(resp), nil
}

// GenerateContentStream 向 Gemini API 发送请求并返回响应通道。
func (g *Gemini) GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error) {
	cs, last := g.newSession(req)

	ch := make(chan *models.GenerateContentResponse)
	iter := cs.SendMessageStream(ctx, last...)

	// 启动一个 goroutine 来处理流式响应。
	go func() {
		defer close(ch)
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return // 流结束。
			}
			if err != nil {
				return
			}
			ch <- fromGenaiResponse(resp)
		}
	}()

	return ch, nil
}

// newSession 为一次请求构建聊天会话：历史 + 待发送的最后一条消息部分。
func (g *Gemini) newSession(req *models.GenerateContentRequest) (*genai.ChatSession, []genai.Part) {
	cs := g.model.StartChat()

	if req.System != "" {
		g.model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	if len(req.Content) == 0 {
		return cs, nil
	}

	for _, c := range req.Content[:len(req.Content)-1] {
		cs.History = append(cs.History, toGenaiContent(c))
	}
	return cs, toGenaiParts(req.Content[len(req.Content)-1])
}

// toGenaiContent 将内部 Content 转换为 GenAI Content。
func toGenaiContent(c models.Content) *genai.Content {
	return &genai.Content{
		Role:  toGenaiRole(c.Role),
		Parts: toGenaiParts(c),
	}
}

// toGenaiRole 将内部角色映射为 GenAI 的 "user"/"model"。
func toGenaiRole(role models.SpeakerRole) string {
	switch role {
	case models.SpeakerModel, models.SpeakerAssistant:
		return "model"
	default:
		return "user"
	}
}

// toGenaiParts 将单条内部 Content 转换为 GenAI Part 切片。
func toGenaiParts(c models.Content) []genai.Part {
	var parts []genai.Part
	for _, p := range c.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, genai.FunctionCall{
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			})
		case p.FunctionResponse != nil:
			parts = append(parts, genai.FunctionResponse{
				Name:     p.FunctionResponse.Name,
				Response: p.FunctionResponse.Response,
			})
		case p.Text != "":
			parts = append(parts, genai.Text(p.Text))
		}
	}
	return parts
}

// fromGenaiResponse 将 GenAI GenerateContentResponse 转换为内部结构体。
func fromGenaiResponse(resp *genai.GenerateContentResponse) *models.GenerateContentResponse {
	if resp == nil {
		return nil
	}
	var content []models.Content
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			content = append(content, fromGenaiContent(cand.Content))
		}
	}
	return &models.GenerateContentResponse{
		Content: content,
	}
}

// fromGenaiContent 将 GenAI Content 结构体转换为内部 Content 结构体。
func fromGenaiContent(content *genai.Content) models.Content {
	var parts []*models.Part
	for _, p := range content.Parts {
		parts = append(parts, fromGenaiPart(p))
	}
	role := models.SpeakerModel
	if content.Role == "user" {
		role = models.SpeakerUser
	}
	return models.Content{
		Parts: parts,
		Role:  role,
	}
}

// fromGenaiPart 将 GenAI Part 接口转换为内部 Part 结构体。
func fromGenaiPart(part genai.Part) *models.Part {
	switch v := part.(type) {
	case genai.Text:
		return &models.Part{Text: string(v)}
	case genai.FunctionCall:
		return &models.Part{
			FunctionCall: &models.FunctionCall{
				Name: v.Name,
				Args: v.Args,
			},
		}
	case genai.FunctionResponse:
		return &models.Part{
			FunctionResponse: &models.FunctionResponse{
				Name:     v.Name,
				Response: v.Response,
			},
		}
	default:
		return &models.Part{Text: fmt.Sprintf("%v", v)}
	}
}
