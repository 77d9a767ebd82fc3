package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiCompleter wraps the Gemini API behind the Completer contract.
type geminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter returns a Completer backed by the Gemini API.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (Completer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiCompleter{client: client, model: model}, nil
}

func (c *geminiCompleter) Name() string {
	return c.model
}

// Complete issues a single generation request.
func (c *geminiCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if temperature >= 0 {
		t := float32(temperature)
		cfg.Temperature = &t
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty generation response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("generation response contained no text")
	}
	return text, nil
}
