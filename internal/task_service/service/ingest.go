package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Colabi/internal/retrieval"
	"Colabi/internal/task_service/store"
)

// IngestService turns an uploaded document into the agent's own-data vector
// namespace. Re-uploads index into the agent's existing namespace.
type IngestService struct {
	store     *store.Store
	retrieval *retrieval.Provider
}

// NewIngestService creates an ingestion service.
func NewIngestService(st *store.Store, rt *retrieval.Provider) *IngestService {
	return &IngestService{store: st, retrieval: rt}
}

// IngestDocument extracts text from the uploaded file, indexes it into the
// agent's vector namespace and flags the agent as owning data. It returns
// the namespace and the number of indexed chunks.
func (s *IngestService) IngestDocument(ctx context.Context, db *gorm.DB, agentID uint, data []byte) (string, int, error) {
	agent, err := s.store.GetAgentByID(db, agentID)
	if err != nil {
		return "", 0, fmt.Errorf("load agent %d: %w", agentID, err)
	}

	vectorID := agent.VectorID
	if vectorID == "" {
		vectorID = uuid.New().String()
	}

	text, err := retrieval.ExtractText(data)
	if err != nil {
		return "", 0, fmt.Errorf("extract document text: %w", err)
	}

	chunks, err := s.retrieval.Index(ctx, vectorID, text)
	if err != nil {
		return "", 0, fmt.Errorf("index document: %w", err)
	}

	if err := s.store.SetAgentVector(db, agentID, vectorID); err != nil {
		return "", 0, fmt.Errorf("set agent vector: %w", err)
	}
	return vectorID, chunks, nil
}
