package embedding

import (
	"Colabi/internal/config"
	"context"
	"fmt"
)

// Embedding 定义了所有 embedding 模型需要实现的接口。
type Embedding interface {
	// Embed 为单个文本生成嵌入向量。
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 为一批文本生成嵌入向量。
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// NewClient 是一个工厂函数，根据配置创建并返回一个实现了 Embedding 接口的客户端。
func NewClient(cfg config.EmbeddingConfig) (Embedding, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "google":
		return NewGoogleModel(cfg.Google.APIKey, cfg.Google.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
