package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// Cache stores classifications keyed by normalized prompt text. It is
// unbounded by design: it is populated from a pre-computed, bounded dataset
// of known prompts, not general traffic, and lives for the process lifetime
// of the owning classifier. Returned classifications are shared read-only.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*model.Classification
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*model.Classification)}
}

// BootstrapEntry is one pre-computed classification in the JSON bootstrap
// file: a mapping from literal prompt text to category and confidence.
type BootstrapEntry struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// LoadCache builds a cache from a JSON bootstrap file. Entries are keyed as
// given in the file (lookup re-normalizes) and stamped with the load time,
// not any original event time.
func LoadCache(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classification cache: %w", err)
	}

	var raw map[string]BootstrapEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse classification cache: %w", err)
	}

	return NewCacheFromBootstrap(raw), nil
}

// NewCacheFromBootstrap builds a cache from an in-memory bootstrap mapping.
func NewCacheFromBootstrap(raw map[string]BootstrapEntry) *Cache {
	c := NewCache()
	for prompt, entry := range raw {
		c.Set(prompt, model.NewClassification(entry.Category, entry.Confidence, prompt))
	}
	return c
}

// normalizeKey is the single canonical key function for both Get and Set.
// Prompts differing only in case or surrounding whitespace are
// cache-equivalent.
func normalizeKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// Get looks up a cached classification for the prompt.
func (c *Cache) Get(prompt string) (*model.Classification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cls, ok := c.entries[normalizeKey(prompt)]
	return cls, ok
}

// Set stores a classification under the normalized prompt key.
func (c *Cache) Set(prompt string, cls *model.Classification) {
	c.mu.Lock()
	c.entries[normalizeKey(prompt)] = cls
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
