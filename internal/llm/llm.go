// Package llm adapts external text-completion services behind a single
// interface. Adapters are treated as unreliable network dependencies: they
// may fail, time out, or return malformed output, and callers are expected
// to absorb every error into a sentinel value.
package llm

import (
	"context"
	"time"
)

// Request is a single completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer is a request/response text-completion service.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

const (
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
)
