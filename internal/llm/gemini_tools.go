package llm

import (
	"Colabi/internal/models"

	"github.com/google/generative-ai-go/genai"
)

// ConvertToolsToGemini 将工具注册表的声明列表转换为 Gemini Go SDK 所需的
// FunctionDeclaration 列表。
func ConvertToolsToGemini(tools []models.ToolMetadata) []*genai.FunctionDeclaration {
	var declarations []*genai.FunctionDeclaration

	for _, tool := range tools {
		declaration := &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
		}

		if params := convertSchemaToGemini(tool.InputSchema); params != nil {
			declaration.Parameters = params
		}

		declarations = append(declarations, declaration)
	}

	return declarations
}

// convertSchemaToGemini 辅助函数，将 models.Schema 转换为 genai.Schema。
func convertSchemaToGemini(schema *models.Schema) *genai.Schema {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	geminiSchema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   schema.Required,
	}

	for name, prop := range schema.Properties {
		propSchema := &genai.Schema{Description: prop.Description}

		switch prop.Type {
		case "string":
			propSchema.Type = genai.TypeString
		case "integer":
			propSchema.Type = genai.TypeInteger
		case "number":
			propSchema.Type = genai.TypeNumber
		case "boolean":
			propSchema.Type = genai.TypeBoolean
		case "array":
			propSchema.Type = genai.TypeArray
		case "object":
			propSchema.Type = genai.TypeObject
		default:
			propSchema.Type = genai.TypeString
		}

		if len(prop.Enum) > 0 {
			propSchema.Enum = prop.Enum
		}

		geminiSchema.Properties[name] = propSchema
	}

	return geminiSchema
}
