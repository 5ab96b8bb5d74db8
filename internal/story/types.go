package story

// State is the host-supplied snapshot of the active conversation. It is
// the wire contract between the host UI and the engine; field fallbacks
// (structured data first, legacy flat second) are resolved by Extract.
type State struct {
	ChatID       string        `json:"chat_id,omitempty"`
	Chat         []ChatMessage `json:"chat"`
	Character    *Character    `json:"character,omitempty"`
	WorldInfo    *Lorebook     `json:"world_info,omitempty"`
	WorldInfoAlt *Lorebook     `json:"world_info_data,omitempty"`
	ChatMetadata *ChatMetadata `json:"chat_metadata,omitempty"`
}

type ChatMessage struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Character carries both the structured card data and the legacy flat
// fields some hosts still populate.
type Character struct {
	Name        string         `json:"name,omitempty"`
	Scenario    string         `json:"scenario,omitempty"`
	Description string         `json:"description,omitempty"`
	Data        *CharacterData `json:"data,omitempty"`

	// CharacterBook is the legacy embedded lorebook location.
	CharacterBook *Lorebook `json:"character_book,omitempty"`
}

type CharacterData struct {
	Scenario      string    `json:"scenario,omitempty"`
	Description   string    `json:"description,omitempty"`
	CharacterBook *Lorebook `json:"character_book,omitempty"`
}

type Lorebook struct {
	Entries []LoreEntry `json:"entries"`
}

// LoreEntry is one background-knowledge snippet. Order and InsertionOrder
// are pointers so that an explicit 0 is distinguishable from absent.
type LoreEntry struct {
	Content        string `json:"content,omitempty"`
	Text           string `json:"text,omitempty"`
	Disable        bool   `json:"disable,omitempty"`
	Disabled       bool   `json:"disabled,omitempty"`
	Order          *int   `json:"order,omitempty"`
	InsertionOrder *int   `json:"insertion_order,omitempty"`
}

type ChatMetadata struct {
	WorldInfo []LoreEntry `json:"world_info,omitempty"`
}

// Context is the normalized, immutable snapshot handed to the prompt
// builder. A nil Context means no conversation exists.
type Context struct {
	History       string
	CharacterInfo string
	Scenario      string
	Description   string
	WorldInfo     string
	MessageCount  int
	ChatID        string
}
