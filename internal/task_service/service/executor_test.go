package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Colabi/internal/llm"
	"Colabi/internal/models"
	"Colabi/internal/task_service/tools"
	"Colabi/pkg/logger"
)

// scriptedLLM replays a fixed sequence of replies and records the requests
// it received.
type scriptedLLM struct {
	replies  []models.Content
	requests []*models.GenerateContentRequest
}

func (s *scriptedLLM) GenerateContent(_ context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return nil, fmt.Errorf("scripted llm exhausted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return &models.GenerateContentResponse{Content: []models.Content{reply}}, nil
}

func (s *scriptedLLM) GenerateContentStream(context.Context, *models.GenerateContentRequest) (<-chan *models.GenerateContentResponse, error) {
	return nil, fmt.Errorf("not supported")
}

type fakeFactory struct{ client llm.LLM }

func (f *fakeFactory) Client([]models.ToolMetadata) (llm.LLM, error) { return f.client, nil }

// echoTool returns a canned string and remembers the args it was called with.
type echoTool struct {
	name   string
	output string
	calls  []map[string]any
}

func (e *echoTool) Metadata() models.ToolMetadata {
	return models.ToolMetadata{Name: e.name, Description: "test tool"}
}

func (e *echoTool) Invoke(_ context.Context, args map[string]any) (string, error) {
	e.calls = append(e.calls, args)
	return e.output, nil
}

type fakeResolver struct{ tools []tools.Tool }

func (f *fakeResolver) Resolve([]uint) ([]tools.Tool, error) { return f.tools, nil }

func textReply(text string) models.Content {
	return models.Content{Role: models.SpeakerAssistant, Parts: []*models.Part{{Text: text}}}
}

func callReply(name string, args map[string]any) models.Content {
	return models.Content{Role: models.SpeakerAssistant, Parts: []*models.Part{{
		FunctionCall: &models.FunctionCall{ID: "call-1", Name: name, Args: args},
	}}}
}

func testLog() *logger.Logger { return logger.New("test", 0, 0) }

func TestExecutorRun_ToolLoop(t *testing.T) {
	tool := &echoTool{name: "search_internet", output: "searched!"}
	client := &scriptedLLM{replies: []models.Content{
		callReply("search_internet", map[string]any{"query": "golang"}),
		textReply("final answer"),
		textReply("Task is successfully completed, and the answer is relevant."),
	}}
	exec := NewExecutor(&fakeFactory{client: client}, &fakeResolver{tools: []tools.Tool{tool}})

	result, err := exec.Run(context.Background(), testAgent(), "do the thing", "", []uint{1}, false, testLog())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Raw != "final answer" {
		t.Errorf("Raw = %q, want %q", result.Raw, "final answer")
	}
	if !strings.HasPrefix(result.Comment, "Task is successfully completed, and") {
		t.Errorf("Comment = %q", result.Comment)
	}
	if len(tool.calls) != 1 || tool.calls[0]["query"] != "golang" {
		t.Errorf("tool calls = %v", tool.calls)
	}

	// Second model request must carry the tool response back.
	if len(client.requests) < 2 {
		t.Fatalf("expected at least 2 model requests, got %d", len(client.requests))
	}
	second := client.requests[1].Content
	last := second[len(second)-1]
	if last.Role != models.SpeakerTool || last.Parts[0].FunctionResponse == nil {
		t.Error("tool output was not appended as a function response message")
	}
	if got := last.Parts[0].FunctionResponse.Response["output"]; got != "searched!" {
		t.Errorf("function response output = %v", got)
	}
}

func TestExecutorRun_UnknownToolReportedToModel(t *testing.T) {
	client := &scriptedLLM{replies: []models.Content{
		callReply("missing_tool", nil),
		textReply("recovered"),
		textReply("Task is successfully completed, and done."),
	}}
	exec := NewExecutor(&fakeFactory{client: client}, &fakeResolver{})

	result, err := exec.Run(context.Background(), testAgent(), "prompt", "", nil, false, testLog())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Raw != "recovered" {
		t.Errorf("Raw = %q", result.Raw)
	}

	second := client.requests[1].Content
	resp := second[len(second)-1].Parts[0].FunctionResponse
	if resp == nil || !strings.Contains(resp.Response["output"].(string), "not available") {
		t.Error("unknown tool must be reported back to the model")
	}
}

func TestExecutorRun_MaxIterations(t *testing.T) {
	var replies []models.Content
	for i := 0; i < maxIterations+1; i++ {
		replies = append(replies, callReply("search_internet", nil))
	}
	tool := &echoTool{name: "search_internet", output: "x"}
	client := &scriptedLLM{replies: replies}
	exec := NewExecutor(&fakeFactory{client: client}, &fakeResolver{tools: []tools.Tool{tool}})

	_, err := exec.Run(context.Background(), testAgent(), "prompt", "", []uint{1}, false, testLog())
	if err == nil || !strings.Contains(err.Error(), "did not converge") {
		t.Errorf("expected non-convergence error, got %v", err)
	}
}

func TestExecutorRun_StructuredOutput(t *testing.T) {
	client := &scriptedLLM{replies: []models.Content{
		textReply("final answer"),
		textReply("```json\n{\"name\":[\"a\",\"b\"],\"score\":[1]}\n```"),
		textReply("Task is successfully completed, and done."),
	}}
	exec := NewExecutor(&fakeFactory{client: client}, &fakeResolver{})

	result, err := exec.Run(context.Background(), testAgent(), "prompt", "", nil, true, testLog())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Columns) != 2 {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Columns["name"]) != 2 || len(result.Columns["score"]) != 1 {
		t.Errorf("column lengths wrong: %v", result.Columns)
	}
}

func TestExecutorRun_SystemPromptCarriesPersona(t *testing.T) {
	client := &scriptedLLM{replies: []models.Content{
		textReply("answer"),
		textReply("Task is successfully completed, and done."),
	}}
	exec := NewExecutor(&fakeFactory{client: client}, &fakeResolver{})

	if _, err := exec.Run(context.Background(), testAgent(), "prompt", "", nil, false, testLog()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(client.requests[0].System, "Market Analyst") {
		t.Errorf("system prompt missing agent role: %q", client.requests[0].System)
	}
}
