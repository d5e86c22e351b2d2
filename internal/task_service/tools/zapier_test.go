package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Colabi/internal/config"
	"Colabi/internal/models"
)

// staticLLM answers every request with the same text.
type staticLLM struct {
	answer   string
	requests int
}

func (s *staticLLM) GenerateContent(context.Context, *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	s.requests++
	return &models.GenerateContentResponse{Content: []models.Content{{
		Role:  models.SpeakerAssistant,
		Parts: []*models.Part{{Text: s.answer}},
	}}}, nil
}

func (s *staticLLM) GenerateContentStream(context.Context, *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error) {
	return nil, fmt.Errorf("not supported")
}

func newTestZapier(exposedURL string, resolver *staticLLM) *zapierNLA {
	return newZapierNLA(config.ToolsConfig{
		ZapierAPIKey:     "test-key",
		ZapierExposedURL: exposedURL,
	}, resolver)
}

func TestZapierNLA_NoActionShortCircuits(t *testing.T) {
	executed := false
	actions := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "execute") {
			executed = true
		}
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer actions.Close()

	resolver := &staticLLM{answer: "None"}
	z := newTestZapier(actions.URL, resolver)

	out, err := z.Invoke(context.Background(), map[string]any{"instructions": "send an email"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out != zapierNoActionResponse {
		t.Errorf("output = %q, want %q", out, zapierNoActionResponse)
	}
	if resolver.requests != 1 {
		t.Errorf("resolver requests = %d, want 1", resolver.requests)
	}
	if executed {
		t.Error("no execute call may happen when no action matches")
	}
}

func TestZapierNLA_ResolverResultIsCaseInsensitive(t *testing.T) {
	resolver := &staticLLM{answer: "  none  "}
	z := newTestZapier(httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	})).URL, resolver)

	out, err := z.Invoke(context.Background(), map[string]any{"instructions": "do a thing"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if out != zapierNoActionResponse {
		t.Errorf("output = %q, want the no-action response", out)
	}
}

func TestZapierNLA_MissingInstructions(t *testing.T) {
	z := newTestZapier("http://unused.invalid", &staticLLM{answer: "None"})
	if _, err := z.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Error("expected error for missing instructions")
	}
}
