package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pathweaver/pathweaver/internal/logger"
)

const openAITemperature = 0.8

// OpenAI generates through any OpenAI-compatible chat completions
// endpoint, typically a local inference server.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-compatible backend. Local servers
// commonly accept any model name and no API key.
func NewOpenAI(baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = "http://localhost:1234/v1"
	}
	if model == "" {
		model = "local-model"
	}

	cfg := openai.DefaultConfig("")
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")

	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	logger.Debug("Generating with OpenAI-compatible endpoint, model %s", o.model)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: openAITemperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
