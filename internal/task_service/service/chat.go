package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"

	"Colabi/internal/llm"
	"Colabi/internal/models"
	"Colabi/internal/retrieval"
	"Colabi/internal/task_service/store"
)

// chatHistoryLimit caps how many prior turns are woven into the prompt.
const chatHistoryLimit = 10

// ChatService answers conversational questions against an agent, keeping
// per-session history in MongoDB and grounding answers in the agent's own
// documents when it has any.
type ChatService struct {
	store     *store.Store
	retrieval *retrieval.Provider
	factory   *llm.Factory
	sessions  *mongo.Collection
}

// NewChatService creates a chat service over the given session collection.
func NewChatService(st *store.Store, rt *retrieval.Provider, factory *llm.Factory, sessions *mongo.Collection) *ChatService {
	return &ChatService{store: st, retrieval: rt, factory: factory, sessions: sessions}
}

// Chat answers one question within a session. The session document is
// created on first use and every answered turn is appended to it.
func (s *ChatService) Chat(ctx context.Context, db *gorm.DB, agentID uint, sessionID, question string) (string, error) {
	agent, err := s.store.GetAgentByID(db, agentID)
	if err != nil {
		return "", fmt.Errorf("load agent %d: %w", agentID, err)
	}

	queries, responses, err := s.history(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var docs []string
	if agent.OwnData && agent.VectorID != "" {
		docs, err = s.retrieval.Search(ctx, agent.VectorID, question, 0)
		if err != nil {
			return "", fmt.Errorf("search document context: %w", err)
		}
	}

	prompt := BuildChatPrompt(question, queries, responses, docs)

	client, err := s.factory.Client(nil)
	if err != nil {
		return "", err
	}
	resp, err := client.GenerateContent(ctx, &models.GenerateContentRequest{
		Content: []models.Content{{
			Role:  models.SpeakerUser,
			Parts: []*models.Part{{Text: prompt}},
		}},
		System: SystemPrompt(agent),
	})
	if err != nil {
		return "", fmt.Errorf("generate chat response: %w", err)
	}
	answer := resp.First().Text()

	if err := s.appendTurn(ctx, sessionID, agentID, question, answer); err != nil {
		return "", err
	}
	return answer, nil
}

// history loads the most recent turns of the session, oldest first.
func (s *ChatService) history(ctx context.Context, sessionID string) (queries, responses []string, err error) {
	var session models.ChatSession
	err = s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load chat session %s: %w", sessionID, err)
	}

	entries := session.Chat
	if len(entries) > chatHistoryLimit {
		entries = entries[len(entries)-chatHistoryLimit:]
	}
	for _, entry := range entries {
		queries = append(queries, entry.Query)
		responses = append(responses, entry.Response)
	}
	return queries, responses, nil
}

// appendTurn pushes the answered turn onto the session document, creating
// the document when the session is new.
func (s *ChatService) appendTurn(ctx context.Context, sessionID string, agentID uint, query, response string) error {
	now := time.Now().UTC()
	_, err := s.sessions.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{
			"$push": bson.M{"chat": models.ChatEntry{Query: query, Response: response, CreatedAt: now}},
			"$set":  bson.M{"updated_at": now},
			"$setOnInsert": bson.M{
				"agent_id":   agentID,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("append chat turn: %w", err)
	}
	return nil
}
