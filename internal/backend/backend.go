package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/profile"
)

var (
	// ErrUnconfigured means the selected source is missing required
	// settings (model, profile name) and cannot dispatch.
	ErrUnconfigured = errors.New("backend not configured")
	// ErrCancelled means the request was cancelled before a result
	// arrived.
	ErrCancelled = errors.New("generation cancelled")
)

// Request is one generation call.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Backend dispatches a built prompt to one text generation source.
type Backend interface {
	// Name identifies the backend for logging and metrics.
	Name() string
	// Generate runs one completion. Cancellation via ctx yields
	// ErrCancelled; cancelling after completion is a no-op.
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the backend selected by settings.Source. raw is the host
// generation func used by the default source; it may be nil when a
// host callback URL is configured instead.
func New(settings config.Settings, profiles *profile.Registry, raw RawGenerateFunc) (Backend, error) {
	switch settings.Source {
	case config.SourceOllama:
		return NewOllama(settings.OllamaURL, settings.OllamaModel)
	case config.SourceOpenAI:
		return NewOpenAI(settings.OpenAIURL, settings.OpenAIModel), nil
	case config.SourceProfile:
		return NewProfile(profiles, settings.Profile)
	case config.SourceDefault, "":
		if raw == nil && settings.HostURL != "" {
			raw = HTTPRawGenerator(settings.HostURL)
		}
		return NewHost(raw)
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrUnconfigured, settings.Source)
	}
}
