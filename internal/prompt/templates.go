package prompt

import (
	"embed"
	"errors"
	"strings"
	"sync"

	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/persist"
)

//go:embed prompts/*.md
var templateFS embed.FS

// minimalInstruction is the last-resort template when nothing else
// resolves.
const minimalInstruction = "Generate story suggestions."

// OverrideStore supplies user customizations: overrides of builtin
// templates and custom categories. *persist.Store implements it.
type OverrideStore interface {
	GetTemplateOverride(category string) (string, error)
	GetCustomCategory(id string) (*persist.CustomCategory, error)
}

// Templates resolves the system template for a category. Resolution
// order: stored override, custom category, embedded builtin, embedded
// generic template, minimal instruction. Resolved templates are cached
// per category until invalidated.
type Templates struct {
	store OverrideStore

	mu    sync.Mutex
	cache map[string]string
}

// NewTemplates creates a template resolver. store may be nil, in which
// case only embedded templates are consulted.
func NewTemplates(store OverrideStore) *Templates {
	return &Templates{store: store, cache: make(map[string]string)}
}

// Load returns the system template for a category.
func (t *Templates) Load(category string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cached, ok := t.cache[category]; ok {
		return cached
	}

	resolved := t.resolve(category)
	t.cache[category] = resolved
	return resolved
}

func (t *Templates) resolve(category string) string {
	if t.store != nil {
		if override, err := t.store.GetTemplateOverride(category); err == nil {
			return override
		} else if !errors.Is(err, persist.ErrNotFound) {
			logger.Warn("Failed to read template override for %s: %v", category, err)
		}

		if custom, err := t.store.GetCustomCategory(category); err == nil {
			return custom.Prompt
		} else if !errors.Is(err, persist.ErrNotFound) {
			logger.Warn("Failed to read custom category %s: %v", category, err)
		}
	}

	if data, err := templateFS.ReadFile("prompts/" + category + ".md"); err == nil {
		return strings.TrimSpace(string(data))
	}

	logger.Debug("No template for category %s, using generic template", category)
	if data, err := templateFS.ReadFile("prompts/template.md"); err == nil {
		return strings.TrimSpace(string(data))
	}
	return minimalInstruction
}

// Invalidate drops the cached template for one category.
func (t *Templates) Invalidate(category string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cache, category)
}

// InvalidateAll drops every cached template.
func (t *Templates) InvalidateAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = make(map[string]string)
}
