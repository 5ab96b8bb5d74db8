package prompt

import (
	"fmt"
	"strings"

	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/story"
)

// Director modes.
const (
	ModeSingleScene = "single_scene"
	ModeStoryBeats  = "story_beats"
)

const (
	maxDescriptionRunes = 800
	maxLoreRunes        = 1500

	minBudget      = 2048
	maxBudget      = 8192
	budgetOverhead = 500
)

// Prompt is a fully built generation request.
type Prompt struct {
	System          string
	User            string
	MaxTokens       int
	EstimatedTokens int
}

// Build assembles the user prompt and token budget for one generation.
// system is the resolved category template. directions are only
// consulted for the director category.
func Build(system string, sctx *story.Context, settings config.Settings, category, mode string, directions []string) Prompt {
	contextBlock := buildContextBlock(sctx, settings)

	var user string
	var budget int

	if category == CategoryDirector && len(directions) > 0 {
		if mode == ModeStoryBeats {
			user = buildStoryBeatsPrompt(contextBlock, settings, directions)
			budget = tokenBudget(len(directions), settings.SuggestionLength, 150, 300)
		} else {
			user = buildSingleScenePrompt(contextBlock, settings, directions)
			budget = tokenBudget(settings.SuggestionsCount, settings.SuggestionLength, 120, 250)
		}
	} else {
		user = buildStandardPrompt(contextBlock, settings)
		budget = tokenBudget(settings.SuggestionsCount, settings.SuggestionLength, 120, 250)
	}

	p := Prompt{
		System:          system,
		User:            user,
		MaxTokens:       budget,
		EstimatedTokens: EstimateTokens(system) + EstimateTokens(user),
	}
	logger.Debug("Built prompt for %s: ~%d tokens in, budget %d", category, p.EstimatedTokens, p.MaxTokens)
	return p
}

// buildContextBlock assembles the story context sections in fixed
// order. Optional sections are included only when enabled and
// non-empty.
func buildContextBlock(sctx *story.Context, settings config.Settings) string {
	var b strings.Builder

	if sctx.CharacterInfo != "" {
		b.WriteString(sctx.CharacterInfo + "\n\n")
	}
	if settings.IncludeScenario && sctx.Scenario != "" {
		b.WriteString("Scenario: " + sctx.Scenario + "\n\n")
	}
	if settings.IncludeDescription && sctx.Description != "" {
		b.WriteString("Character Description: " + firstRunes(sctx.Description, maxDescriptionRunes) + "\n\n")
	}
	if settings.IncludeWorldInfo && sctx.WorldInfo != "" {
		b.WriteString("World Lore:\n" + firstRunes(sctx.WorldInfo, maxLoreRunes) + "\n\n")
	}
	b.WriteString("Recent conversation:\n" + sctx.History)

	return b.String()
}

func buildStandardPrompt(contextBlock string, settings config.Settings) string {
	return fmt.Sprintf("[STORY CONTEXT]\n%s\n\n[TASK]\nGenerate exactly %d distinct suggestions.\n%s\nFollow the format specified in the system instructions exactly.\nIMPORTANT: Use PLAIN TEXT for titles - do NOT wrap titles in **asterisks**.\nDo NOT include any preamble.",
		contextBlock, settings.SuggestionsCount, lengthInstruction(settings.SuggestionLength))
}

// buildSingleScenePrompt treats all directions as one combined scene
// direction and asks for variations on it.
func buildSingleScenePrompt(contextBlock string, settings config.Settings, directions []string) string {
	combined := strings.Join(directions, " ")
	return fmt.Sprintf("[STORY CONTEXT]\n%s\n\n[TASK]\nThe user has provided the following direction/scenario for the next scene:\n\"%s\"\n\nBased on this direction, generate exactly %d DISTINCT options or variations for how this scene could play out.\n%s\n\nFORMAT:\n[EMOJI] TITLE\nDESCRIPTION\n\nGUIDELINES:\n- All suggestions must follow the user's direction but offer different execution/flavor.\n- Keep titles punchy and plain text.\n- Do NOT include any preamble.",
		contextBlock, combined, settings.SuggestionsCount, lengthInstruction(settings.SuggestionLength))
}

// buildStoryBeatsPrompt maps each direction to exactly one suggestion.
func buildStoryBeatsPrompt(contextBlock string, settings config.Settings, directions []string) string {
	numbered := make([]string, 0, len(directions))
	for i, d := range directions {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, d))
	}

	perSuggestion := "Write 2-3 sentences per suggestion."
	if settings.SuggestionLength == config.LengthLong {
		perSuggestion = "Write 4-6 sentences per suggestion."
	}

	return fmt.Sprintf("[STORY CONTEXT]\n%s\n\n[TASK]\nGenerate exactly %d suggestions, one for each of the following directions.\n\nUSER DIRECTIONS:\n%s\n\nFORMAT:\n[EMOJI] TITLE\nDESCRIPTION\n\nGUIDELINES:\n- PREVENT BLEED: Each suggestion must be strictly isolated to its corresponding input beat. Do NOT combine events from different beats unless explicitly requested.\n- Follow the specific direction for each suggestion EXACTLY.\n- Keep titles punchy and plain text (no asterisks).\n- %s\n- Do NOT include any preamble.",
		contextBlock, len(directions), strings.Join(numbered, "\n"), perSuggestion)
}

func lengthInstruction(length string) string {
	if length == config.LengthLong {
		return "Each description should be 4-6 sentences, providing rich detail and context."
	}
	return "Each description should be 2-3 sentences, concise but evocative."
}

// tokenBudget scales the output allowance with the number of expected
// suggestions and clamps it to a sane window.
func tokenBudget(count int, length string, perShort, perLong int) int {
	per := perShort
	if length == config.LengthLong {
		per = perLong
	}
	budget := count*per + budgetOverhead
	if budget < minBudget {
		budget = minBudget
	}
	if budget > maxBudget {
		budget = maxBudget
	}
	return budget
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
