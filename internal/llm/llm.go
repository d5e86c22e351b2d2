package llm

import (
	"Colabi/internal/config"
	"Colabi/internal/models"
	"context"
	"fmt"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, req *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error)
}

// Factory 在进程启动时以配置构建一次，之后按需创建绑定了特定工具集的客户端。
// 每个任务携带自己的工具列表，因此客户端在任务执行时构建，而不是全局共享。
type Factory struct {
	cfg config.LLMConfig
}

// NewFactory 创建一个 LLM 客户端工厂。
func NewFactory(cfg config.LLMConfig) *Factory {
	return &Factory{cfg: cfg}
}

// Client 返回一个绑定了给定工具声明的 LLM 客户端。
func (f *Factory) Client(tools []models.ToolMetadata) (LLM, error) {
	return NewClient(f.cfg, tools)
}

// NewClient 是一个工厂函数，根据提供的配置创建并返回一个实现了 LLM 接口的客户端。
// 它接收一个工具声明列表，并将其注入到LLM客户端中，使模型能够感知并调用这些工具。
func NewClient(cfg config.LLMConfig, tools []models.ToolMetadata) (LLM, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey, ConvertToolsToOpenAI(tools))
	case "gemini":
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey, ConvertToolsToGemini(tools))
	case "ollama":
		// Ollama 不支持函数调用，工具声明被忽略。
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
