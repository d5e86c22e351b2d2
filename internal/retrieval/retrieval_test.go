package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"Colabi/pkg/logger"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[0], nil
}

func (s *stubEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return s.vectors, s.err
}

func TestSearchEmbeddingErrors(t *testing.T) {
	t.Run("provider error is wrapped", func(t *testing.T) {
		cause := errors.New("quota exhausted")
		p := NewProvider(&stubEmbedder{err: cause}, nil, logger.New("test", 0, 0))

		_, err := p.Search(context.Background(), "agent-1", "query", 0.2)
		if !errors.Is(err, cause) {
			t.Fatalf("expected wrapped cause, got %v", err)
		}
	})

	t.Run("empty batch reported without a nil wrap", func(t *testing.T) {
		p := NewProvider(&stubEmbedder{}, nil, logger.New("test", 0, 0))

		_, err := p.Search(context.Background(), "agent-1", "query", 0.2)
		if err == nil {
			t.Fatal("expected error for empty embedding batch")
		}
		if strings.Contains(err.Error(), "%!w") || strings.Contains(err.Error(), "<nil>") {
			t.Errorf("error message carries a nil wrap: %q", err)
		}
	})
}
