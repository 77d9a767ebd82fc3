package models

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiCompleter wraps an OpenAI-compatible chat client.
type openaiCompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter returns a Completer backed by an OpenAI-compatible API.
func NewOpenAICompleter(apiKey, model string) (Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiCompleter{
		client: &client,
		model:  model,
	}, nil
}

func (c *openaiCompleter) Name() string {
	return c.model
}

// Complete issues a single non-streaming chat completion.
func (c *openaiCompleter) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if temperature >= 0 {
		params.Temperature = openai.Float(temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("failed to call completion API", "error", err.Error(), "model", c.model)
		return "", fmt.Errorf("failed to call completion API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
