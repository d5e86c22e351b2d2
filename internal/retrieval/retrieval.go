package retrieval

import (
	"Colabi/internal/database/milvus"
	"Colabi/internal/embedding"
	"Colabi/pkg/logger"
	"context"
	"errors"
	"fmt"
)

// 单次相似度查询返回的最大候选数。命中结果还会按相关度阈值过滤。
const defaultTopK = 5

// Provider 是文档相似度检索层：按 Agent 的向量命名空间检索相关片段，
// 并负责私有语料的写入（索引）。
type Provider struct {
	embedder embedding.Embedding
	store    *milvus.MilvusClient
	log      *logger.Logger
}

// NewProvider creates a retrieval provider over the given embedder and vector store.
func NewProvider(embedder embedding.Embedding, store *milvus.MilvusClient, log *logger.Logger) *Provider {
	return &Provider{
		embedder: embedder,
		store:    store,
		log:      log,
	}
}

// Search embeds the query and returns the texts of all chunks in the agent's
// namespace whose similarity score clears the threshold, ordered by relevance.
// The result may be empty; that is not an error.
func (p *Provider) Search(ctx context.Context, namespace, query string, scoreThreshold float32) ([]string, error) {
	queryEmbeddings, err := p.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryEmbeddings) == 0 {
		return nil, errors.New("embedding provider returned no vector for query")
	}

	hits, err := p.store.Search(ctx, namespace, defaultTopK, queryEmbeddings[0])
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	snippets := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < scoreThreshold {
			continue
		}
		snippets = append(snippets, hit.Text)
	}

	p.log.WithPayload(map[string]interface{}{
		"namespace":  namespace,
		"candidates": len(hits),
		"retained":   len(snippets),
	}).Info("Similarity search finished")

	return snippets, nil
}

// Index splits the document text into chunks, embeds them and inserts them
// into the agent's namespace partition. Returns the number of chunks stored.
func (p *Provider) Index(ctx context.Context, namespace, text string) (int, error) {
	chunks := SplitText(text, defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document chunks: %w", err)
	}

	if err := p.store.EnsureCollection(ctx); err != nil {
		return 0, err
	}
	if err := p.store.EnsurePartition(ctx, namespace); err != nil {
		return 0, err
	}

	if err := p.store.InsertBatch(ctx, namespace, chunks, vectors); err != nil {
		return 0, err
	}

	return len(chunks), nil
}
