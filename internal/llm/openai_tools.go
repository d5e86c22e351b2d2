package llm

import (
	"Colabi/internal/models"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// ConvertToolsToOpenAI converts the registry's tool declarations to the
// FunctionDefinition list required by the OpenAI Go SDK.
func ConvertToolsToOpenAI(tools []models.ToolMetadata) []openai.Tool {
	var openAITools []openai.Tool

	for _, tool := range tools {
		openAITool := openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  convertSchemaToOpenAI(tool.InputSchema),
			},
		}
		openAITools = append(openAITools, openAITool)
	}

	return openAITools
}

// convertSchemaToOpenAI is a helper that converts models.Schema to the loose
// JSON-schema map the OpenAI SDK expects.
func convertSchemaToOpenAI(schema *models.Schema) map[string]interface{} {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	properties := make(map[string]interface{}, len(schema.Properties))
	for name, prop := range schema.Properties {
		p := map[string]interface{}{"type": prop.Type}
		if prop.Description != "" {
			p["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			p["enum"] = prop.Enum
		}
		properties[name] = p
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   schema.Required,
	}
}
