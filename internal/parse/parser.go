package parse

import (
	"context"
	"regexp"
	"strings"

	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/story"
)

// Suggestion is one parsed story direction.
type Suggestion struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

const (
	// DefaultEmoji is used when a segment carries no emoji of its own.
	DefaultEmoji = "✨"
	// PlaceholderDescription replaces an empty description.
	PlaceholderDescription = "Click to use this suggestion"

	maxTitleRunes = 100
	// minSegmentRunes is the floor below which a segment is noise.
	minSegmentRunes = 10
)

var (
	// emojiClass covers the common emoji blocks; broad on purpose, the
	// segmentation fallback depends on catching most of them.
	emojiClass = regexp.MustCompile(`[\x{1F300}-\x{1F9FF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{2300}-\x{23FF}\x{2B50}\x{1FA00}-\x{1FAFF}]`)

	separatorSplit = regexp.MustCompile(`\n---\n|\n---|---\n|\n\n---\n\n`)
	blankLineSplit = regexp.MustCompile(`\n\n+`)
	numberedLine   = regexp.MustCompile(`\n\d+[.)]\s`)

	leadingOrdinal = regexp.MustCompile(`^\d+[.)]\s*`)
	boldMarker     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarker   = regexp.MustCompile(`\*([^*]+)\*`)
	strayEmphasis  = regexp.MustCompile(`^\*+\s*|\s*\*+$`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Parse converts raw model output into an ordered list of suggestions.
// Malformed input is never an error; anything unusable is skipped and an
// empty result is a valid outcome. The output is capped at limit
// entries when limit is positive.
//
// The context is checked before any text processing starts, so a
// cancellation issued during dispatch is observed before parsing work
// begins.
func Parse(ctx context.Context, text string, limit int) []Suggestion {
	if ctx.Err() != nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cleaned := story.StripReasoningTags(text)

	blocks := segment(cleaned)

	suggestions := make([]Suggestion, 0, len(blocks))
	for _, block := range blocks {
		if s, ok := extract(block); ok {
			suggestions = append(suggestions, s)
		}
	}

	logger.Debug("Parsed %d suggestions from %d segments", len(suggestions), len(blocks))

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// segment applies the segmentation strategies in fixed order: explicit
// separators, blank lines, emoji boundaries, numbered lines. Later
// strategies only replace earlier results when the earlier ones
// produced too few segments. The order is deliberate and load-bearing;
// do not reorder.
func segment(text string) []string {
	blocks := separatorSplit.Split(text, -1)

	if len(blocks) <= 1 {
		blocks = blankLineSplit.Split(text, -1)
	}

	if len(blocks) <= 2 {
		if emojiBlocks, ok := splitOnEmoji(text); ok {
			blocks = emojiBlocks
		}
	}

	if len(blocks) <= 2 {
		numbered := splitOnNumbering(text)
		if len(numbered) > len(blocks) {
			blocks = numbered
		}
	}

	return blocks
}

// splitOnEmoji uses every emoji occurrence as a segment start, keeping
// segments longer than the noise floor. Fewer than two emojis is not a
// usable segmentation.
func splitOnEmoji(text string) ([]string, bool) {
	matches := emojiClass.FindAllStringIndex(text, -1)
	if len(matches) < 2 {
		return nil, false
	}
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i < len(matches)-1 {
			end = matches[i+1][0]
		}
		block := strings.TrimSpace(text[m[0]:end])
		if len([]rune(block)) > minSegmentRunes {
			blocks = append(blocks, block)
		}
	}
	return blocks, true
}

// splitOnNumbering splits before lines starting with "1." / "1)" style
// markers, keeping the marker with its segment.
func splitOnNumbering(text string) []string {
	matches := numberedLine.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	blocks := make([]string, 0, len(matches)+1)
	prev := 0
	for _, m := range matches {
		blocks = append(blocks, text[prev:m[0]])
		prev = m[0] + 1 // skip the newline, keep the number
	}
	blocks = append(blocks, text[prev:])
	return blocks
}

// extract pulls (emoji, title, description) out of one segment and
// normalizes the fields. ok is false when the segment is unusable.
func extract(block string) (Suggestion, bool) {
	trimmed := strings.TrimSpace(block)
	if len([]rune(trimmed)) < minSegmentRunes {
		return Suggestion{}, false
	}

	trimmed = story.StripReasoningTags(trimmed)
	trimmed = strings.TrimSpace(story.StripMarkup(trimmed))
	if len([]rune(trimmed)) < minSegmentRunes {
		return Suggestion{}, false
	}

	emoji := DefaultEmoji
	var title, description string

	if loc := emojiClass.FindStringIndex(trimmed); loc != nil {
		emoji = trimmed[loc[0]:loc[1]]
		afterEmoji := strings.TrimSpace(trimmed[loc[1]:])
		if idx := strings.Index(afterEmoji, "\n"); idx > 0 {
			title = strings.TrimSpace(afterEmoji[:idx])
			description = strings.TrimSpace(afterEmoji[idx+1:])
		} else {
			title = afterEmoji
		}
	} else {
		lines := strings.Split(trimmed, "\n")
		title = strings.TrimSpace(lines[0])
		description = strings.TrimSpace(strings.Join(lines[1:], " "))
	}

	title = normalizeTitle(title)
	description = normalizeDescription(description)

	titleRunes := []rune(title)
	if len(titleRunes) <= 2 || len(titleRunes) >= 150 {
		return Suggestion{}, false
	}
	if len(titleRunes) > maxTitleRunes {
		title = string(titleRunes[:maxTitleRunes])
	}
	if description == "" {
		description = PlaceholderDescription
	}

	return Suggestion{Emoji: emoji, Title: title, Description: description}, true
}

func normalizeTitle(title string) string {
	title = leadingOrdinal.ReplaceAllString(title, "")
	title = boldMarker.ReplaceAllString(title, "$1")
	title = italicMarker.ReplaceAllString(title, "$1")
	title = strings.TrimSpace(strayEmphasis.ReplaceAllString(title, ""))
	return whitespaceRun.ReplaceAllString(title, " ")
}

func normalizeDescription(description string) string {
	description = boldMarker.ReplaceAllString(description, "$1")
	description = italicMarker.ReplaceAllString(description, "$1")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(description, " "))
}
