package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"Colabi/internal/llm"
	"Colabi/internal/models"
	"Colabi/internal/task_service/tools"
	"Colabi/pkg/logger"
)

// maxIterations 限制单次运行中工具调用回合的最大次数，防止模型陷入调用循环。
const maxIterations = 8

// structuredPrompt asks the model to re-emit its answer as a columnar JSON
// object so the output can be exported as a spreadsheet.
const structuredPrompt = "Convert your previous answer into a single JSON object mapping column names " +
	"to arrays of cell values. Respond with only the JSON object, no Markdown fences and no extra text."

// RunResult is the outcome of one agent run.
type RunResult struct {
	Raw     string           // the final free-form answer
	Columns map[string][]any // columnar form, only set when requested
	Comment string           // the one-sentence completion confirmation
}

// ClientFactory builds a model client bound to a set of tool declarations.
// *llm.Factory is the production implementation.
type ClientFactory interface {
	Client(tools []models.ToolMetadata) (llm.LLM, error)
}

// ToolResolver maps persisted tool ids to live tool instances.
// *tools.Registry is the production implementation.
type ToolResolver interface {
	Resolve(ids []uint) ([]tools.Tool, error)
}

// Executor drives the model/tool loop for a single run. Tools are resolved
// per run from the ids stored on the task, and a client bound to exactly
// those tool declarations is created for the run.
type Executor struct {
	factory  ClientFactory
	registry ToolResolver
}

// NewExecutor creates an executor over the given client factory and tool
// registry.
func NewExecutor(factory ClientFactory, registry ToolResolver) *Executor {
	return &Executor{factory: factory, registry: registry}
}

// Run executes the prompt against the model, dispatching any tool calls it
// emits, then collects the comment confirmation and, when structured is
// set, the columnar form of the answer. expectedOutput, when non-empty,
// rides along in the system prompt to shape the final answer.
func (e *Executor) Run(ctx context.Context, agent *models.Agent, prompt, expectedOutput string, toolIDs []uint, structured bool, log *logger.Logger) (*RunResult, error) {
	resolved, err := e.registry.Resolve(toolIDs)
	if err != nil {
		return nil, err
	}
	client, err := e.factory.Client(tools.Declarations(resolved))
	if err != nil {
		return nil, err
	}

	system := SystemPrompt(agent)
	if expectedOutput != "" {
		system += "\nExpected output: " + expectedOutput
	}
	history := []models.Content{{
		Role:  models.SpeakerUser,
		Parts: []*models.Part{{Text: prompt}},
	}}

	raw := ""
	for i := 0; ; i++ {
		if i >= maxIterations {
			return nil, fmt.Errorf("run did not converge after %d tool iterations", maxIterations)
		}

		resp, err := client.GenerateContent(ctx, &models.GenerateContentRequest{
			Content: history,
			System:  system,
		})
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}

		reply := resp.First()
		history = append(history, reply)

		if !reply.HasFunctionCall() {
			raw = reply.Text()
			break
		}
		history = append(history, e.dispatchCalls(ctx, reply, resolved, log))
	}

	result := &RunResult{Raw: raw}

	if structured {
		columns, err := e.structuredOutput(ctx, client, system, history)
		if err != nil {
			return nil, err
		}
		result.Columns = columns
	}

	comment, err := e.comment(ctx, client, system, history)
	if err != nil {
		return nil, err
	}
	result.Comment = comment

	return result, nil
}

// dispatchCalls invokes every function call in the reply and packs the
// outputs into a single tool-role message. A failing tool reports its error
// back to the model instead of aborting the run.
func (e *Executor) dispatchCalls(ctx context.Context, reply models.Content, resolved []tools.Tool, log *logger.Logger) models.Content {
	var parts []*models.Part
	for _, part := range reply.Parts {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		call := part.FunctionCall

		output := ""
		tool := tools.Find(resolved, call.Name)
		if tool == nil {
			output = fmt.Sprintf("Tool %q is not available for this task.", call.Name)
			log.WithPayload(map[string]interface{}{"tool": call.Name}).Warn("Model requested an unresolved tool")
		} else {
			out, err := tool.Invoke(ctx, call.Args)
			if err != nil {
				output = fmt.Sprintf("Tool %q failed: %v", call.Name, err)
				log.WithError(models.ErrorInfo{Message: err.Error()}).
					WithPayload(map[string]interface{}{"tool": call.Name}).
					Warn("Tool invocation failed")
			} else {
				output = out
			}
		}

		parts = append(parts, &models.Part{FunctionResponse: &models.FunctionResponse{
			Name:     call.Name,
			ID:       call.ID,
			Response: map[string]any{"output": output},
		}})
	}
	return models.Content{Role: models.SpeakerTool, Parts: parts}
}

// structuredOutput asks the model to restate the final answer as a columnar
// JSON object. Code fences are stripped before decoding since some models
// wrap JSON in Markdown regardless of instructions.
func (e *Executor) structuredOutput(ctx context.Context, client llm.LLM, system string, history []models.Content) (map[string][]any, error) {
	followUp := append(append([]models.Content{}, history...), models.Content{
		Role:  models.SpeakerUser,
		Parts: []*models.Part{{Text: structuredPrompt}},
	})

	resp, err := client.GenerateContent(ctx, &models.GenerateContentRequest{
		Content: followUp,
		System:  system,
	})
	if err != nil {
		return nil, fmt.Errorf("structured output: %w", err)
	}

	text := strings.TrimSpace(resp.First().Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	columns := map[string][]any{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &columns); err != nil {
		return nil, fmt.Errorf("decode structured output: %w", err)
	}
	return columns, nil
}

// comment asks the model for the one-sentence completion confirmation.
func (e *Executor) comment(ctx context.Context, client llm.LLM, system string, history []models.Content) (string, error) {
	followUp := append(append([]models.Content{}, history...), models.Content{
		Role:  models.SpeakerUser,
		Parts: []*models.Part{{Text: CommentPrompt}},
	})

	resp, err := client.GenerateContent(ctx, &models.GenerateContentRequest{
		Content: followUp,
		System:  system,
	})
	if err != nil {
		return "", fmt.Errorf("comment: %w", err)
	}
	return strings.TrimSpace(resp.First().Text()), nil
}
