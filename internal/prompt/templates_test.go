package prompt

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pathweaver/pathweaver/internal/persist"
)

func newTestTemplates(t *testing.T) (*Templates, *persist.Store) {
	t.Helper()
	store, err := persist.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewTemplates(store), store
}

func TestLoadResolutionPrecedence(t *testing.T) {
	tpl, store := newTestTemplates(t)

	// Embedded builtin when nothing is stored.
	builtin := tpl.Load("twist")
	if !strings.Contains(builtin, "plot twist") {
		t.Fatalf("expected embedded twist template, got %q", builtin)
	}

	// Override wins once the cache is invalidated.
	if err := store.SaveTemplateOverride("twist", "my custom twist prompt"); err != nil {
		t.Fatalf("SaveTemplateOverride: %v", err)
	}
	if got := tpl.Load("twist"); got != builtin {
		t.Fatalf("cached template should survive until invalidation")
	}
	tpl.Invalidate("twist")
	if got := tpl.Load("twist"); got != "my custom twist prompt" {
		t.Fatalf("override should win, got %q", got)
	}

	// Reset falls back to the builtin again.
	if err := store.DeleteTemplateOverride("twist"); err != nil {
		t.Fatalf("DeleteTemplateOverride: %v", err)
	}
	tpl.Invalidate("twist")
	if got := tpl.Load("twist"); got != builtin {
		t.Fatalf("reset should restore the builtin template, got %q", got)
	}
}

func TestLoadCustomCategory(t *testing.T) {
	tpl, store := newTestTemplates(t)

	err := store.SaveCustomCategory(persist.CustomCategory{
		ID: "pirate", Name: "Pirate", Icon: "fa-anchor", Prompt: "Suggest piratical story turns.",
	})
	if err != nil {
		t.Fatalf("SaveCustomCategory: %v", err)
	}
	if got := tpl.Load("pirate"); got != "Suggest piratical story turns." {
		t.Fatalf("custom category prompt should resolve, got %q", got)
	}
}

func TestLoadUnknownCategoryFallsBack(t *testing.T) {
	tpl, _ := newTestTemplates(t)
	got := tpl.Load("no-such-category")
	if !strings.Contains(got, "creative writing assistant") {
		t.Fatalf("unknown category should fall back to the generic template, got %q", got)
	}
}

func TestLoadWithoutStore(t *testing.T) {
	tpl := NewTemplates(nil)
	if got := tpl.Load("context"); !strings.Contains(got, "OUTPUT FORMAT") {
		t.Fatalf("embedded template should resolve without a store, got %q", got)
	}
}

func TestInvalidateAll(t *testing.T) {
	tpl, store := newTestTemplates(t)
	before := tpl.Load("horror")

	if err := store.SaveTemplateOverride("horror", "new horror"); err != nil {
		t.Fatalf("SaveTemplateOverride: %v", err)
	}
	tpl.InvalidateAll()
	if got := tpl.Load("horror"); got == before {
		t.Fatalf("InvalidateAll should drop all cached templates")
	}
}

func TestBuiltinCategories(t *testing.T) {
	visible := BuiltinCategories(false)
	for _, c := range visible {
		if c.NSFW {
			t.Fatalf("nsfw category %s should be hidden by default", c.ID)
		}
	}

	all := BuiltinCategories(true)
	if len(all) != len(visible)+1 {
		t.Fatalf("expected exactly one nsfw category, got %d vs %d", len(all), len(visible))
	}

	if !Builtin("sci-fi") || !Builtin("context") {
		t.Fatalf("builtin lookup failed")
	}
	if Builtin("director") || Builtin("pirate") {
		t.Fatalf("non-builtin ids should not report builtin")
	}
}
