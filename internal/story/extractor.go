package story

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pathweaver/pathweaver/internal/logger"
)

const (
	// maxMessageRunes caps each cleaned history message.
	maxMessageRunes = 2000
	// minLoreOrder is the priority threshold below which lore entries
	// are not worth prompt space.
	minLoreOrder = 250
	// maxLoreEntries caps how many lore entries reach the prompt.
	maxLoreEntries = 10
)

var reasoningTagNames = []string{"thought", "think", "thinking", "reasoning", "reason"}

var (
	reasoningPairPatterns []*regexp.Regexp
	reasoningSelfClosing  *regexp.Regexp
	markupTag             = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	// RE2 has no backreferences, so each tag name gets its own
	// open/close pair pattern.
	for _, name := range reasoningTagNames {
		reasoningPairPatterns = append(reasoningPairPatterns,
			regexp.MustCompile(`(?is)<`+name+`>.*?</`+name+`>`))
	}
	reasoningSelfClosing = regexp.MustCompile(`(?i)<(?:` + strings.Join(reasoningTagNames, "|") + `)\s*/>`)
}

// StripReasoningTags removes machine-reasoning markup, both paired
// (<thinking>...</thinking>) and self-closing (<thinking/>) forms.
func StripReasoningTags(text string) string {
	if text == "" {
		return ""
	}
	for _, re := range reasoningPairPatterns {
		text = re.ReplaceAllString(text, "")
	}
	text = reasoningSelfClosing.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StripMarkup removes any residual <...> tags.
func StripMarkup(text string) string {
	return markupTag.ReplaceAllString(text, "")
}

func cleanMessage(text string) string {
	if text == "" {
		return ""
	}
	cleaned := StripReasoningTags(text)
	cleaned = StripMarkup(cleaned)
	cleaned = html.UnescapeString(cleaned)
	runes := []rune(cleaned)
	if len(runes) > maxMessageRunes {
		cleaned = string(runes[:maxMessageRunes])
	}
	return cleaned
}

// Extract normalizes a host state snapshot into a Context. It returns
// nil when no conversation exists; that is the empty-state outcome, not
// an error. depth is clamped to [2,10].
func Extract(state *State, depth int) *Context {
	if state == nil || len(state.Chat) == 0 {
		return nil
	}

	if depth < 2 {
		depth = 2
	}
	if depth > 10 {
		depth = 10
	}

	recent := state.Chat
	if len(recent) > depth {
		recent = recent[len(recent)-depth:]
	}

	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Speaker, cleanMessage(msg.Text)))
	}

	ctx := &Context{
		History:      strings.Join(lines, "\n\n"),
		MessageCount: len(recent),
		ChatID:       state.ChatID,
	}
	if ctx.ChatID == "" {
		ctx.ChatID = uuid.NewString()
	}

	if char := state.Character; char != nil {
		name := char.Name
		if name == "" {
			name = "Unknown"
		}
		ctx.CharacterInfo = "Character: " + name

		if char.Data != nil && char.Data.Scenario != "" {
			ctx.Scenario = char.Data.Scenario
		} else {
			ctx.Scenario = char.Scenario
		}
		if char.Data != nil && char.Data.Description != "" {
			ctx.Description = char.Data.Description
		} else {
			ctx.Description = char.Description
		}
	}

	worldInfo, err := extractLore(state)
	if err != nil {
		logger.Warn("Failed to extract world info: %v", err)
	} else {
		ctx.WorldInfo = worldInfo
	}

	return ctx
}

// extractLore walks the lore sources in fixed order and uses the first
// one that produces any entries: character book (new location, then
// legacy), global world info, secondary world info, chat metadata.
func extractLore(state *State) (string, error) {
	var entries []string

	collect := func(list []LoreEntry) {
		for _, entry := range list {
			content := entry.Content
			if content == "" {
				content = entry.Text
			}
			if content == "" || entry.Disable || entry.Disabled {
				continue
			}
			order := 0
			if entry.Order != nil {
				order = *entry.Order
			} else if entry.InsertionOrder != nil {
				order = *entry.InsertionOrder
			}
			if order < minLoreOrder {
				continue
			}
			entries = append(entries, content)
		}
	}

	if char := state.Character; char != nil {
		if char.Data != nil && char.Data.CharacterBook != nil {
			collect(char.Data.CharacterBook.Entries)
		}
		if len(entries) == 0 && char.CharacterBook != nil {
			collect(char.CharacterBook.Entries)
		}
	}
	if len(entries) == 0 && state.WorldInfo != nil {
		collect(state.WorldInfo.Entries)
	}
	if len(entries) == 0 && state.WorldInfoAlt != nil {
		collect(state.WorldInfoAlt.Entries)
	}
	if len(entries) == 0 && state.ChatMetadata != nil {
		collect(state.ChatMetadata.WorldInfo)
	}

	if len(entries) == 0 {
		return "", nil
	}
	if len(entries) > maxLoreEntries {
		entries = entries[:maxLoreEntries]
	}
	return strings.Join(entries, "\n\n"), nil
}
