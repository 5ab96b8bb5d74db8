package suggest

import (
	"sync"

	"github.com/pathweaver/pathweaver/internal/parse"
)

// Cache holds generated suggestions per category for the current chat.
// Switching to a different chat clears everything; there is no
// cross-chat retention.
type Cache struct {
	mu      sync.Mutex
	chatID  string
	entries map[string][]parse.Suggestion
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]parse.Suggestion)}
}

// Get returns the cached suggestions for (chatID, category). A lookup
// for a different chat than the cached one clears the cache and
// misses.
func (c *Cache) Get(chatID, category string) ([]parse.Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chatID != c.chatID {
		c.resetLocked(chatID)
		return nil, false
	}
	s, ok := c.entries[category]
	return s, ok
}

// Put stores suggestions for (chatID, category), clearing the cache
// first when the chat changed.
func (c *Cache) Put(chatID, category string, suggestions []parse.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chatID != c.chatID {
		c.resetLocked(chatID)
	}
	c.entries[category] = suggestions
}

// InvalidateAll drops every cached entry. Called on chat-changed and
// generation-ended host events.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(c.chatID)
}

func (c *Cache) resetLocked(chatID string) {
	c.chatID = chatID
	c.entries = make(map[string][]parse.Suggestion)
}
