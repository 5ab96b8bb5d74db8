package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/pathweaver/pathweaver/internal/logger"
)

const ollamaNumCtx = 8192

// Ollama generates through a local ollama server's native API.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama creates an ollama backend. A model must be selected.
func NewOllama(baseURL, model string) (*Ollama, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: no ollama model selected", ErrUnconfigured)
	}
	client, err := newOllamaClient(baseURL)
	if err != nil {
		return nil, err
	}
	return &Ollama{client: client, model: model}, nil
}

func newOllamaClient(baseURL string) (*api.Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return api.NewClient(parsed, &http.Client{Timeout: 5 * time.Minute}), nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	stream := false
	genReq := &api.GenerateRequest{
		Model:  o.model,
		System: req.System,
		Prompt: req.User,
		Stream: &stream,
		Options: map[string]any{
			"num_ctx":     ollamaNumCtx,
			"num_predict": req.MaxTokens,
		},
	}

	logger.Debug("Generating with ollama model %s", o.model)

	var result strings.Builder
	err := o.client.Generate(ctx, genReq, func(resp api.GenerateResponse) error {
		result.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	return result.String(), nil
}

// ListModels returns the model names available on an ollama server.
func ListModels(ctx context.Context, baseURL string) ([]string, error) {
	client, err := newOllamaClient(baseURL)
	if err != nil {
		return nil, err
	}
	resp, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
