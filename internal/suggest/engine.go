package suggest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pathweaver/pathweaver/internal/backend"
	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/parse"
	"github.com/pathweaver/pathweaver/internal/profile"
	"github.com/pathweaver/pathweaver/internal/prompt"
	"github.com/pathweaver/pathweaver/internal/story"
)

// ErrBusy is returned when a generation is already running. The
// rejected request has no side effects.
var ErrBusy = errors.New("generation already in progress")

// Status is the terminal outcome of one generation.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusEmpty     Status = "empty"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// State is the engine's observable progress through one generation.
type State string

const (
	StateIdle           State = "idle"
	StateExtracting     State = "extracting"
	StateCheckingCache  State = "checking_cache"
	StateBuildingPrompt State = "building_prompt"
	StateDispatching    State = "dispatching"
	StateParsing        State = "parsing"
	StateAborting       State = "aborting"
)

// Request is one generation request.
type Request struct {
	State        *story.State
	Category     string
	Mode         string
	Directions   []string
	ForceRefresh bool

	// Settings overrides the engine's base settings for this request
	// when non-nil.
	Settings *config.Settings
}

// Result is the terminal outcome of a generation.
type Result struct {
	Status      Status             `json:"status"`
	Suggestions []parse.Suggestion `json:"suggestions,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	FromCache   bool               `json:"from_cache,omitempty"`
	Category    string             `json:"category"`
}

// Engine runs generations one at a time: extract, cache check, prompt
// build, dispatch, parse. A second request while one is in flight is
// rejected with ErrBusy.
type Engine struct {
	settings  config.Settings
	templates *prompt.Templates
	cache     *Cache

	newBackend func(settings config.Settings) (backend.Backend, error)

	mu     sync.Mutex
	busy   bool
	state  State
	cancel context.CancelFunc
}

// NewEngine creates an engine. raw is the host generation func for the
// default source and may be nil when a host callback URL is
// configured.
func NewEngine(settings config.Settings, templates *prompt.Templates, profiles *profile.Registry, raw backend.RawGenerateFunc) *Engine {
	return &Engine{
		settings:  settings,
		templates: templates,
		cache:     NewCache(),
		state:     StateIdle,
		newBackend: func(s config.Settings) (backend.Backend, error) {
			return backend.New(s, profiles, raw)
		},
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Busy reports whether a generation is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Cancel requests cooperative cancellation of the in-flight
// generation. It is a no-op when the engine is idle.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.state = StateAborting
		e.cancel()
	}
}

// InvalidateCache drops all cached suggestions.
func (e *Engine) InvalidateCache() {
	e.cache.InvalidateAll()
}

// Templates exposes the template resolver for cache invalidation after
// edits.
func (e *Engine) Templates() *prompt.Templates {
	return e.templates
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// Aborting sticks until the generation winds down.
	if e.state != StateAborting || s == StateIdle {
		e.state = s
	}
}

// Generate runs one generation to completion. Every outcome other than
// a busy rejection is reported through the Result.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.busy = true
	e.state = StateExtracting
	genCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		e.busy = false
		e.state = StateIdle
		e.cancel = nil
		e.mu.Unlock()
	}()

	settings := e.settings
	if req.Settings != nil {
		settings = *req.Settings
	}
	settings = settings.Normalize()

	category := req.Category
	if category == "" {
		category = "context"
	}

	logger.Info("Generating %s suggestions", category)

	sctx := story.Extract(req.State, settings.ContextDepth)
	if sctx == nil {
		return &Result{
			Status:   StatusEmpty,
			Reason:   "Start a conversation to get suggestions",
			Category: category,
		}, nil
	}

	// Director output depends on the user's directions, so it is never
	// served from or written to the cache.
	cacheable := category != prompt.CategoryDirector
	if cacheable && !req.ForceRefresh {
		e.setState(StateCheckingCache)
		if cached, ok := e.cache.Get(sctx.ChatID, category); ok {
			logger.Debug("Serving %s suggestions from cache", category)
			return &Result{
				Status:      StatusSuccess,
				Suggestions: cached,
				FromCache:   true,
				Category:    category,
			}, nil
		}
	}

	e.setState(StateBuildingPrompt)
	system := e.templates.Load(category)
	built := prompt.Build(system, sctx, settings, category, req.Mode, req.Directions)

	if genCtx.Err() != nil {
		return &Result{Status: StatusCancelled, Category: category}, nil
	}

	b, err := e.newBackend(settings)
	if err != nil {
		logger.Error("Backend unavailable: %v", err)
		return &Result{Status: StatusFailed, Reason: err.Error(), Category: category}, nil
	}

	e.setState(StateDispatching)
	start := time.Now()
	text, err := b.Generate(genCtx, backend.Request{
		System:    built.System,
		User:      built.User,
		MaxTokens: built.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, backend.ErrCancelled) || genCtx.Err() != nil {
			backend.ObserveGeneration(b.Name(), category, string(StatusCancelled), time.Since(start))
			logger.Info("Generation cancelled")
			return &Result{Status: StatusCancelled, Category: category}, nil
		}
		backend.ObserveGeneration(b.Name(), category, string(StatusFailed), time.Since(start))
		logger.Error("Generation failed: %v", err)
		return &Result{Status: StatusFailed, Reason: err.Error(), Category: category}, nil
	}

	e.setState(StateParsing)
	suggestions := parse.Parse(genCtx, text, settings.SuggestionsCount)

	if genCtx.Err() != nil {
		backend.ObserveGeneration(b.Name(), category, string(StatusCancelled), time.Since(start))
		return &Result{Status: StatusCancelled, Category: category}, nil
	}
	if len(suggestions) == 0 {
		backend.ObserveGeneration(b.Name(), category, string(StatusEmpty), time.Since(start))
		logger.Warn("No suggestions parsed from response (%d chars)", len(text))
		return &Result{
			Status:   StatusEmpty,
			Reason:   "No suggestions could be parsed. Try again.",
			Category: category,
		}, nil
	}

	backend.ObserveGeneration(b.Name(), category, string(StatusSuccess), time.Since(start))

	if cacheable {
		e.cache.Put(sctx.ChatID, category, suggestions)
	}

	logger.Info("Generated %d %s suggestions", len(suggestions), category)
	return &Result{
		Status:      StatusSuccess,
		Suggestions: suggestions,
		Category:    category,
	}, nil
}
