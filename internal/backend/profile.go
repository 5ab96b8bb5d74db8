package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/profile"
)

// Requester performs one completion against a managed connection
// profile. The response shape depends on the provider, so it is probed
// by extractContent.
type Requester interface {
	Request(ctx context.Context, system, user string, maxTokens int) (any, error)
}

// ProfileBackend dispatches through a named connection profile.
type ProfileBackend struct {
	profileName string
	requester   Requester
}

// NewProfile resolves name in the registry and builds the matching
// requester. An anthropic-typed profile uses the native messages API,
// everything else goes through chat completions.
func NewProfile(profiles *profile.Registry, name string) (*ProfileBackend, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no profile selected", ErrUnconfigured)
	}
	if profiles == nil {
		return nil, fmt.Errorf("%w: no profile registry", ErrUnconfigured)
	}
	p, ok := profiles.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: profile %q not found", ErrUnconfigured, name)
	}

	var requester Requester
	switch p.Type {
	case "anthropic", "claude":
		requester = newAnthropicRequester(p)
	default:
		requester = newOpenAIRequester(p)
	}

	return &ProfileBackend{profileName: p.Name, requester: requester}, nil
}

func (b *ProfileBackend) Name() string { return "profile" }

func (b *ProfileBackend) Generate(ctx context.Context, req Request) (string, error) {
	logger.Debug("Generating with profile %s", b.profileName)

	resp, err := b.requester.Request(ctx, req.System, req.User, req.MaxTokens)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("profile %s: %w", b.profileName, err)
	}
	return extractContent(resp), nil
}

// extractContent probes the provider response for its text payload:
// a content field, a plain string, a chat-completion shape, and as a
// last resort the JSON serialization of the whole response.
func extractContent(resp any) string {
	switch v := resp.(type) {
	case map[string]any:
		if content, ok := v["content"].(string); ok && content != "" {
			return content
		}
	case string:
		return v
	case openai.ChatCompletionResponse:
		if len(v.Choices) > 0 {
			return v.Choices[0].Message.Content
		}
	case anthropic.MessagesResponse:
		if len(v.Content) > 0 {
			return v.Content[0].GetText()
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	return string(data)
}

type openAIRequester struct {
	client *openai.Client
	model  string
}

func newOpenAIRequester(p *profile.Profile) *openAIRequester {
	cfg := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	return &openAIRequester{client: openai.NewClientWithConfig(cfg), model: p.Model}
}

func (r *openAIRequester) Request(ctx context.Context, system, user string, maxTokens int) (any, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: maxTokens,
		Stream:    false,
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type anthropicRequester struct {
	client *anthropic.Client
	model  string
}

func newAnthropicRequester(p *profile.Profile) *anthropicRequester {
	opts := []anthropic.ClientOption{}
	if p.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(p.BaseURL))
	}
	return &anthropicRequester{client: anthropic.NewClient(p.APIKey, opts...), model: p.Model}
}

func (r *anthropicRequester) Request(ctx context.Context, system, user string, maxTokens int) (any, error) {
	resp, err := r.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(r.model),
		System:    system,
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(user),
		},
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
