package prompt

import (
	"strings"
	"testing"

	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/story"
)

func testContext() *story.Context {
	return &story.Context{
		History:       "Alice: hello\n\nBob: hi there",
		CharacterInfo: "Character: Bob",
		Scenario:      "A quiet tavern at dusk",
		Description:   "Bob is a retired sailor.",
		WorldInfo:     "The tavern sits at the edge of the kingdom.",
		MessageCount:  2,
		ChatID:        "c1",
	}
}

func TestBuildContextBlockSections(t *testing.T) {
	settings := config.DefaultSettings()
	settings.IncludeWorldInfo = true

	block := buildContextBlock(testContext(), settings)

	wantOrder := []string{"Character: Bob", "Scenario:", "Character Description:", "World Lore:", "Recent conversation:"}
	last := -1
	for _, marker := range wantOrder {
		idx := strings.Index(block, marker)
		if idx < 0 {
			t.Fatalf("missing section %q in %q", marker, block)
		}
		if idx < last {
			t.Fatalf("section %q out of order", marker)
		}
		last = idx
	}
}

func TestBuildContextBlockFlags(t *testing.T) {
	settings := config.DefaultSettings()
	settings.IncludeScenario = false
	settings.IncludeDescription = false

	block := buildContextBlock(testContext(), settings)
	if strings.Contains(block, "Scenario:") || strings.Contains(block, "Character Description:") {
		t.Fatalf("disabled sections should be omitted: %q", block)
	}
	if strings.Contains(block, "World Lore:") {
		t.Fatalf("world info is off by default: %q", block)
	}
	if !strings.Contains(block, "Recent conversation:") {
		t.Fatalf("history is always included: %q", block)
	}
}

func TestBuildContextBlockTruncation(t *testing.T) {
	sctx := testContext()
	sctx.Description = strings.Repeat("d", 1000)
	sctx.WorldInfo = strings.Repeat("w", 2000)

	settings := config.DefaultSettings()
	settings.IncludeWorldInfo = true

	block := buildContextBlock(sctx, settings)
	if strings.Contains(block, strings.Repeat("d", 801)) {
		t.Fatalf("description should be capped at 800 runes")
	}
	if !strings.Contains(block, strings.Repeat("d", 800)) {
		t.Fatalf("description should keep its first 800 runes")
	}
	if strings.Contains(block, strings.Repeat("w", 1501)) {
		t.Fatalf("lore should be capped at 1500 runes")
	}
}

func TestBuildStandardPrompt(t *testing.T) {
	settings := config.DefaultSettings()
	p := Build("system template", testContext(), settings, "twist", ModeSingleScene, nil)

	if p.System != "system template" {
		t.Fatalf("system template should pass through unchanged")
	}
	if !strings.Contains(p.User, "Generate exactly 6 distinct suggestions.") {
		t.Fatalf("standard prompt should carry the suggestion count: %q", p.User)
	}
	if !strings.Contains(p.User, "PLAIN TEXT") {
		t.Fatalf("standard prompt should forbid markdown titles: %q", p.User)
	}
	if p.MaxTokens != 2048 {
		t.Fatalf("6 short suggestions should clamp up to 2048, got %d", p.MaxTokens)
	}
	if p.EstimatedTokens <= 0 {
		t.Fatalf("estimated tokens should be positive")
	}
}

func TestBuildDirectorStoryBeats(t *testing.T) {
	settings := config.DefaultSettings()
	dirs := []string{"the roof collapses", "a letter arrives"}
	p := Build("sys", testContext(), settings, CategoryDirector, ModeStoryBeats, dirs)

	if !strings.Contains(p.User, "Generate exactly 2 suggestions, one for each") {
		t.Fatalf("story beats should request one suggestion per direction: %q", p.User)
	}
	if !strings.Contains(p.User, "1. the roof collapses\n2. a letter arrives") {
		t.Fatalf("directions should be numbered: %q", p.User)
	}
	if !strings.Contains(p.User, "PREVENT BLEED") {
		t.Fatalf("story beats should isolate beats: %q", p.User)
	}
	if p.MaxTokens != 2048 {
		t.Fatalf("2 short beats should clamp up to 2048, got %d", p.MaxTokens)
	}
}

func TestBuildDirectorSingleScene(t *testing.T) {
	settings := config.DefaultSettings()
	dirs := []string{"storm the castle", "quietly"}
	p := Build("sys", testContext(), settings, CategoryDirector, ModeSingleScene, dirs)

	if !strings.Contains(p.User, `"storm the castle quietly"`) {
		t.Fatalf("directions should be combined into one scene direction: %q", p.User)
	}
	if !strings.Contains(p.User, "generate exactly 6 DISTINCT options") {
		t.Fatalf("single scene should ask for count variations: %q", p.User)
	}
}

func TestBuildDirectorSingleSceneKeepsDirectionVerbatim(t *testing.T) {
	settings := config.DefaultSettings()
	dirs := []string{"she says \"run\"", "then\nhides"}
	p := Build("sys", testContext(), settings, CategoryDirector, ModeSingleScene, dirs)

	if !strings.Contains(p.User, "\"she says \"run\" then\nhides\"") {
		t.Fatalf("direction text must reach the model unescaped: %q", p.User)
	}
	if strings.Contains(p.User, `\"`) || strings.Contains(p.User, `\n`) {
		t.Fatalf("direction text must not be escaped: %q", p.User)
	}
}

func TestBuildDirectorWithoutDirections(t *testing.T) {
	settings := config.DefaultSettings()
	p := Build("sys", testContext(), settings, CategoryDirector, ModeSingleScene, nil)
	if !strings.Contains(p.User, "Generate exactly 6 distinct suggestions.") {
		t.Fatalf("director without directions should fall back to the standard shape: %q", p.User)
	}
}

func TestTokenBudget(t *testing.T) {
	tests := []struct {
		count    int
		length   string
		perShort int
		perLong  int
		want     int
	}{
		{6, config.LengthShort, 120, 250, 2048},
		{6, config.LengthLong, 120, 250, 2048},
		{20, config.LengthLong, 120, 250, 5500},
		{40, config.LengthLong, 120, 250, 8192},
		{10, config.LengthLong, 150, 300, 3500},
		{4, config.LengthShort, 150, 300, 2048},
	}
	for _, tt := range tests {
		got := tokenBudget(tt.count, tt.length, tt.perShort, tt.perLong)
		if got != tt.want {
			t.Fatalf("tokenBudget(%d, %s, %d, %d) = %d, want %d",
				tt.count, tt.length, tt.perShort, tt.perLong, got, tt.want)
		}
	}
}

func TestLongLengthInstruction(t *testing.T) {
	settings := config.DefaultSettings()
	settings.SuggestionLength = config.LengthLong
	p := Build("sys", testContext(), settings, "context", ModeSingleScene, nil)
	if !strings.Contains(p.User, "4-6 sentences") {
		t.Fatalf("long length should ask for 4-6 sentences: %q", p.User)
	}
}
