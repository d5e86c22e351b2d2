package tools

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"Colabi/internal/models"
)

// imageGeneration renders an image from a text prompt with DALL·E and
// returns the hosted URL of the result.
type imageGeneration struct {
	client *openai.Client
}

func newImageGeneration(apiKey string) *imageGeneration {
	return &imageGeneration{client: openai.NewClient(apiKey)}
}

func (i *imageGeneration) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "generate_image",
		Description: "Generate an image from a text description and return the image URL.",
		InputSchema: &models.Schema{
			Type: "object",
			Properties: map[string]*models.Schema{
				"prompt": {Type: "string", Description: "A detailed description of the image to generate."},
			},
			Required: []string{"prompt"},
		},
	}
}

func (i *imageGeneration) Invoke(ctx context.Context, args map[string]any) (string, error) {
	prompt := stringArg(args, "prompt")
	if prompt == "" {
		return "", fmt.Errorf("generate_image: missing prompt")
	}

	resp, err := i.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("generate_image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("generate_image: empty response")
	}
	return fmt.Sprintf("Image generated: %s", resp.Data[0].URL), nil
}
