package story

import (
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func chatOf(n int) []ChatMessage {
	msgs := make([]ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, ChatMessage{Speaker: "Alice", Text: "message"})
	}
	return msgs
}

func TestExtractNoConversation(t *testing.T) {
	if ctx := Extract(nil, 4); ctx != nil {
		t.Fatalf("nil state should yield nil context")
	}
	if ctx := Extract(&State{}, 4); ctx != nil {
		t.Fatalf("empty chat should yield nil context")
	}
}

func TestExtractDepthClamp(t *testing.T) {
	tests := []struct {
		depth int
		want  int
	}{
		{0, 2},
		{1, 2},
		{4, 4},
		{10, 10},
		{50, 10},
	}
	for _, tt := range tests {
		ctx := Extract(&State{ChatID: "c1", Chat: chatOf(20)}, tt.depth)
		if ctx == nil {
			t.Fatalf("depth %d: expected context", tt.depth)
		}
		if ctx.MessageCount != tt.want {
			t.Fatalf("depth %d: got %d messages, want %d", tt.depth, ctx.MessageCount, tt.want)
		}
	}
}

func TestExtractTakesMostRecentTurns(t *testing.T) {
	state := &State{ChatID: "c1", Chat: []ChatMessage{
		{Speaker: "A", Text: "first"},
		{Speaker: "B", Text: "second"},
		{Speaker: "A", Text: "third"},
	}}
	ctx := Extract(state, 2)
	if strings.Contains(ctx.History, "first") {
		t.Fatalf("oldest turn should be dropped at depth 2: %q", ctx.History)
	}
	if !strings.Contains(ctx.History, "B: second") || !strings.Contains(ctx.History, "A: third") {
		t.Fatalf("recent turns missing: %q", ctx.History)
	}
}

func TestExtractCleansMessages(t *testing.T) {
	state := &State{ChatID: "c1", Chat: []ChatMessage{
		{Speaker: "Bot", Text: "<thinking>secret plan</thinking>Hello <b>world</b> &amp; co"},
		{Speaker: "Bot2", Text: "<reasoning/>visible"},
	}}
	ctx := Extract(state, 4)
	if strings.Contains(ctx.History, "secret plan") {
		t.Fatalf("reasoning tag content should be stripped: %q", ctx.History)
	}
	if strings.Contains(ctx.History, "<b>") {
		t.Fatalf("markup should be stripped: %q", ctx.History)
	}
	if !strings.Contains(ctx.History, "Hello world & co") {
		t.Fatalf("expected unescaped cleaned text, got %q", ctx.History)
	}
	if !strings.Contains(ctx.History, "Bot2: visible") {
		t.Fatalf("self-closing tag should be removed: %q", ctx.History)
	}
}

func TestExtractTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("x", 3000)
	ctx := Extract(&State{ChatID: "c1", Chat: []ChatMessage{{Speaker: "A", Text: long}, {Speaker: "B", Text: "ok"}}}, 4)
	if strings.Contains(ctx.History, strings.Repeat("x", 2001)) {
		t.Fatalf("message should be truncated to 2000 runes")
	}
	if !strings.Contains(ctx.History, strings.Repeat("x", 2000)) {
		t.Fatalf("message should keep first 2000 runes")
	}
}

func TestExtractCharacterFallbacks(t *testing.T) {
	// Structured data wins over legacy flat fields.
	state := &State{ChatID: "c1", Chat: chatOf(2), Character: &Character{
		Name:        "Mira",
		Scenario:    "legacy scenario",
		Description: "legacy description",
		Data:        &CharacterData{Scenario: "card scenario"},
	}}
	ctx := Extract(state, 4)
	if ctx.CharacterInfo != "Character: Mira" {
		t.Fatalf("unexpected character info: %q", ctx.CharacterInfo)
	}
	if ctx.Scenario != "card scenario" {
		t.Fatalf("structured scenario should win, got %q", ctx.Scenario)
	}
	if ctx.Description != "legacy description" {
		t.Fatalf("legacy description should be the fallback, got %q", ctx.Description)
	}

	// Unnamed character gets the placeholder.
	ctx = Extract(&State{ChatID: "c1", Chat: chatOf(2), Character: &Character{}}, 4)
	if ctx.CharacterInfo != "Character: Unknown" {
		t.Fatalf("unexpected placeholder: %q", ctx.CharacterInfo)
	}
}

func TestExtractLoreFiltering(t *testing.T) {
	book := &Lorebook{Entries: []LoreEntry{
		{Content: "kept high", Order: intPtr(300)},
		{Content: "dropped low", Order: intPtr(100)},
		{Content: "dropped disabled", Disabled: true, Order: intPtr(400)},
		{Content: "dropped disable", Disable: true, Order: intPtr(400)},
		{Text: "kept via text field", InsertionOrder: intPtr(250)},
		{Content: "dropped no order"},
	}}
	state := &State{ChatID: "c1", Chat: chatOf(2), Character: &Character{
		Name: "Mira",
		Data: &CharacterData{CharacterBook: book},
	}}
	ctx := Extract(state, 4)
	if !strings.Contains(ctx.WorldInfo, "kept high") || !strings.Contains(ctx.WorldInfo, "kept via text field") {
		t.Fatalf("expected kept entries, got %q", ctx.WorldInfo)
	}
	for _, dropped := range []string{"dropped low", "dropped disabled", "dropped disable", "dropped no order"} {
		if strings.Contains(ctx.WorldInfo, dropped) {
			t.Fatalf("entry %q should have been filtered", dropped)
		}
	}
}

func TestExtractLoreSourceOrder(t *testing.T) {
	mk := func(content string) *Lorebook {
		return &Lorebook{Entries: []LoreEntry{{Content: content, Order: intPtr(300)}}}
	}

	// Character book wins over global tables.
	state := &State{
		ChatID:       "c1",
		Chat:         chatOf(2),
		Character:    &Character{Name: "Mira", CharacterBook: mk("from character")},
		WorldInfo:    mk("from global"),
		WorldInfoAlt: mk("from secondary"),
	}
	ctx := Extract(state, 4)
	if ctx.WorldInfo != "from character" {
		t.Fatalf("character book should win, got %q", ctx.WorldInfo)
	}

	// Without a character book the global table is used.
	state.Character.CharacterBook = nil
	ctx = Extract(state, 4)
	if ctx.WorldInfo != "from global" {
		t.Fatalf("global table should be second, got %q", ctx.WorldInfo)
	}

	// Chat metadata is the last resort.
	state.WorldInfo = nil
	state.WorldInfoAlt = nil
	state.ChatMetadata = &ChatMetadata{WorldInfo: []LoreEntry{{Content: "from metadata", Order: intPtr(260)}}}
	ctx = Extract(state, 4)
	if ctx.WorldInfo != "from metadata" {
		t.Fatalf("chat metadata should be the fallback, got %q", ctx.WorldInfo)
	}
}

func TestExtractLoreCap(t *testing.T) {
	entries := make([]LoreEntry, 0, 15)
	for i := 0; i < 15; i++ {
		entries = append(entries, LoreEntry{Content: "entry", Order: intPtr(300)})
	}
	state := &State{ChatID: "c1", Chat: chatOf(2), WorldInfo: &Lorebook{Entries: entries}}
	ctx := Extract(state, 4)
	if got := strings.Count(ctx.WorldInfo, "entry"); got != 10 {
		t.Fatalf("expected 10 lore entries, got %d", got)
	}
}

func TestExtractGeneratesChatIDFallback(t *testing.T) {
	a := Extract(&State{Chat: chatOf(2)}, 4)
	b := Extract(&State{Chat: chatOf(2)}, 4)
	if a.ChatID == "" || b.ChatID == "" {
		t.Fatalf("fallback chat id should be generated")
	}
	if a.ChatID == b.ChatID {
		t.Fatalf("fallback chat ids should be unique")
	}
}
