package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/pathweaver/pathweaver/internal/logger"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// EstimateTokens counts the tokens in text using the cl100k_base
// encoding. When the encoding is unavailable it falls back to a rough
// characters/4 estimate.
func EstimateTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warn("Failed to load token encoding: %v", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return len(text) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}
