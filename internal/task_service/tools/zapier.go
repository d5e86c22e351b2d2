package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"Colabi/internal/config"
	"Colabi/internal/llm"
	"Colabi/internal/models"
)

const (
	zapierExecuteURLFormat = "https://actions.zapier.com/api/v1/exposed/%s/execute/"

	// zapierNoActionResponse is returned verbatim when no exposed action
	// matches the instruction, so the agent can relay it to the user.
	zapierNoActionResponse = "No action found please active app."
)

// zapierResolvePrompt asks the nested model to map an instruction to one of
// the exposed Zapier action ids.
const zapierResolvePrompt = "If the specified action is not found in the provided JSON, respond with 'None'. " +
	"Your task is to retrieve the valid action ID from the JSON based on the given user instruction. " +
	"Use only the provided data for action retrieval. Do not alter or use any additional data beyond this.\n\n" +
	"Exposed actions JSON:\n%s\n\nUser instruction: %s\n\n" +
	"Only provide the action ID. Do not include any additional text or context in your response."

// zapierNLA executes workflows through Zapier's Natural Language Actions.
// Resolution happens in two steps: the account's exposed actions are fetched
// and a nested model call picks the action id matching the instruction, then
// that action is executed with the instruction as its natural-language input.
type zapierNLA struct {
	apiKey     string
	exposedURL string
	resolver   llm.LLM
}

func newZapierNLA(cfg config.ToolsConfig, resolver llm.LLM) *zapierNLA {
	return &zapierNLA{
		apiKey:     cfg.ZapierAPIKey,
		exposedURL: cfg.ZapierExposedURL,
		resolver:   resolver,
	}
}

func (z *zapierNLA) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "zapier_nla",
		Description: "Perform an action in a connected app (email, calendar, Slack, etc.) through Zapier by describing the task in natural language.",
		InputSchema: &models.Schema{
			Type: "object",
			Properties: map[string]*models.Schema{
				"instructions": {Type: "string", Description: "A complete natural-language description of the action to perform, including all required details."},
			},
			Required: []string{"instructions"},
		},
	}
}

func (z *zapierNLA) Invoke(ctx context.Context, args map[string]any) (string, error) {
	instructions := stringArg(args, "instructions")
	if instructions == "" {
		return "", fmt.Errorf("zapier_nla: missing instructions")
	}

	actionsJSON, err := z.exposedActions(ctx)
	if err != nil {
		return "", err
	}

	actionID, err := z.resolveActionID(ctx, actionsJSON, instructions)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(actionID, "none") {
		return zapierNoActionResponse, nil
	}

	return z.execute(ctx, actionID, instructions)
}

// exposedActions fetches the raw JSON listing of actions the account has
// enabled for NLA use.
func (z *zapierNLA) exposedActions(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, z.exposedURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", z.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("zapier: list exposed actions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zapier: list exposed actions: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// resolveActionID delegates id selection to the nested model. The model is
// instructed to answer with the bare id, or "None" when nothing matches.
func (z *zapierNLA) resolveActionID(ctx context.Context, actionsJSON, instructions string) (string, error) {
	prompt := fmt.Sprintf(zapierResolvePrompt, actionsJSON, instructions)
	resp, err := z.resolver.GenerateContent(ctx, &models.GenerateContentRequest{
		Content: []models.Content{{
			Role:  models.SpeakerUser,
			Parts: []*models.Part{{Text: prompt}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("zapier: resolve action id: %w", err)
	}
	return strings.TrimSpace(resp.First().Text()), nil
}

func (z *zapierNLA) execute(ctx context.Context, actionID, instructions string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"instructions": instructions,
		"preview_only": false,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(zapierExecuteURLFormat, actionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", z.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error while doing task. Error: %v", err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
