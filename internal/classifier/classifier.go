// Package classifier determines which intent category a prompt belongs to.
// Classification is total: any failure (transport, malformed output, an
// out-of-vocabulary category) degrades to the "unclassified" sentinel so the
// policy engine can treat it as an ordinary category value.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/firebreak-sh/firebreak/internal/llm"
	"github.com/firebreak-sh/firebreak/internal/model"
)

const systemPromptTemplate = `You are an intent classifier for an AI deployment policy system.

Classify the following user prompt into exactly ONE of these categories:
%s

Respond with ONLY a JSON object in this exact format, no other text:
{"category": "<category_name>", "confidence": <float_between_0_and_1>}`

const classifyMaxTokens = 256

// Classifier classifies prompts into a fixed category vocabulary via an
// external completion service, consulting the cache first.
type Classifier struct {
	categories map[string]bool
	ordered    []string
	cache      *Cache
	completer  llm.Completer
}

// New builds a classifier for the given category vocabulary. Both cache and
// completer may be nil: with no completer every uncached prompt is
// unclassified, which keeps the pipeline total in offline runs.
func New(categories []string, cache *Cache, completer llm.Completer) *Classifier {
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return &Classifier{
		categories: set,
		ordered:    append([]string(nil), categories...),
		cache:      cache,
		completer:  completer,
	}
}

// classifyResponse is the machine-parseable pair the service must return.
type classifyResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Classify returns a classification for the prompt. It never fails visibly:
// a cache hit is returned as-is with no external call; otherwise the external
// service is invoked and any error, unparseable response, or category outside
// the configured vocabulary yields the unclassified fallback. Genuine
// successes are stored in the cache before returning.
func (c *Classifier) Classify(ctx context.Context, prompt string) *model.Classification {
	if c.cache != nil {
		if cached, ok := c.cache.Get(prompt); ok {
			return cached
		}
	}

	if c.completer == nil {
		return model.NewUnclassified(prompt)
	}

	raw, err := c.completer.Complete(ctx, llm.Request{
		System:    fmt.Sprintf(systemPromptTemplate, strings.Join(c.ordered, "\n")),
		Prompt:    prompt,
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		return model.NewUnclassified(prompt)
	}

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return model.NewUnclassified(prompt)
	}

	if !c.categories[parsed.Category] {
		return model.NewUnclassified(prompt)
	}

	result := model.NewClassification(parsed.Category, parsed.Confidence, prompt)
	if c.cache != nil {
		c.cache.Set(prompt, result)
	}
	return result
}

// cleanJSON strips markdown fences and surrounding whitespace. Some models
// wrap JSON in ``` fences despite instructions.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
