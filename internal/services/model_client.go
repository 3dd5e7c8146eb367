package services

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// geminiClient talks to the Gemini API. The API key is picked up from the
// environment by the SDK (GOOGLE_API_KEY / GEMINI_API_KEY).
type geminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates the external-model boundary against a concrete
// Gemini model.
func NewGeminiClient(ctx context.Context, model string) (ModelClientInterface, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClient{client: client, model: model}, nil
}

func (c *geminiClient) Classify(ctx context.Context, prompt string) (ClassifyResult, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return ClassifyResult{}, fmt.Errorf("empty response from model %s", c.model)
	}

	return ClassifyResult{Text: text, ModelID: c.model}, nil
}
