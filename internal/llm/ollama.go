package llm

import (
	"Colabi/internal/models"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama 是一个用于 Ollama API 的 LLM 客户端。
type Ollama struct {
	client *olla.Client // Ollama 客户端实例。
	model  string       // 要使用的模型名称。
}

// NewOllama 创建一个新的 Ollama 客户端。
// baseURL 为空时默认为 "http://localhost:11434"。
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	// 创建一个带有超时设置的 HTTP 客户端。
	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	client := olla.NewClient(parsedURL, hc)

	return &Ollama{client: client, model: model}, nil
}

// GenerateContent 使用 Ollama API 生成内容。
func (o *Ollama) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	// 将内部请求转换为 Ollama 提示格式。
	prompt := o.toOllamaPrompt(req)

	var result *olla.GenerateResponse

	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &[]bool{false}[0], // 设置为非流式传输。
	}, func(resp olla.GenerateResponse) error {
		result = &resp
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to generate content with ollama: %w", err)
	}

	return o.toGenerateContentResponse(result), nil
}

// GenerateContentStream 使用 Ollama API 以流式方式生成内容。
func (o *Ollama) GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error) {
	prompt := o.toOllamaPrompt(req)
	respChan := make(chan *models.GenerateContentResponse)

	// 启动一个 goroutine 来处理流式响应。
	go func() {
		defer close(respChan)

		err := o.client.Generate(ctx, &olla.GenerateRequest{
			Model:  o.model,
			Prompt: prompt,
			Stream: &[]bool{true}[0],
		}, func(resp olla.GenerateResponse) error {
			respChan <- o.toGenerateContentResponse(&resp)
			return nil
		})

		if err != nil {
			return
		}
	}()

	return respChan, nil
}

// toOllamaPrompt 将内部 GenerateContentRequest 转换为 Ollama 提示字符串。
func (o *Ollama) toOllamaPrompt(req *models.GenerateContentRequest) string {
	var sb strings.Builder
	if req.System != "" {
		sb.WriteString(req.System)
		sb.WriteString("\n\n")
	}
	// 遍历请求内容，将所有文本部分拼接成一个字符串。
	for _, content := range req.Content {
		for _, part := range content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// toGenerateContentResponse 将 Ollama GenerateResponse 转换为内部结构体。
func (o *Ollama) toGenerateContentResponse(resp *olla.GenerateResponse) *models.GenerateContentResponse {
	return &models.GenerateContentResponse{
		Content: []models.Content{
			{
				Parts: []*models.Part{{Text: resp.Response}},
				Role:  models.SpeakerModel,
			},
		},
		ModelVersion: resp.Model,
	}
}
