// Package intercept orchestrates the evaluation pipeline: classify, match
// against policy, forward allowed prompts downstream, alert, and audit,
// emitting an observable event after each stage.
package intercept

import (
	"context"

	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/llm"
	"github.com/firebreak-sh/firebreak/internal/model"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

// FailedResponse is attached in place of downstream model output when the
// call fails. Downstream failure never escapes the interceptor.
const FailedResponse = "[LLM call failed]"

// Interceptor runs prompts through the full evaluation pipeline.
type Interceptor struct {
	engine     *policy.Engine
	classifier *classifier.Classifier
	auditLog   *audit.Log
	completer  llm.Completer
	bus        *Bus
	maxTokens  int
}

// Config wires an interceptor's collaborators. Completer may be nil: allowed
// requests then carry the failure sentinel instead of a model response.
type Config struct {
	Engine     *policy.Engine
	Classifier *classifier.Classifier
	AuditLog   *audit.Log
	Completer  llm.Completer
	MaxTokens  int
}

// New builds an interceptor with a fresh event bus.
func New(cfg Config) *Interceptor {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Interceptor{
		engine:     cfg.Engine,
		classifier: cfg.Classifier,
		auditLog:   cfg.AuditLog,
		completer:  cfg.Completer,
		bus:        NewBus(),
		maxTokens:  maxTokens,
	}
}

// Bus exposes the event bus for observer registration.
func (i *Interceptor) Bus() *Bus {
	return i.bus
}

// AuditLog exposes the audit log this interceptor writes to.
func (i *Interceptor) AuditLog() *audit.Log {
	return i.auditLog
}

// EvaluateRequest runs one prompt through the pipeline. The stage order is a
// load-bearing contract for observers:
//
//	prompt_received → classified → evaluated →
//	(response | blocked) → alert per target → audit append → return
//
// Classification and downstream failures never surface to the caller; the
// only possible error is the precondition failure of an engine with no
// policy loaded.
func (i *Interceptor) EvaluateRequest(ctx context.Context, prompt string, metadata map[string]string) (*model.Evaluation, error) {
	i.bus.Emit(Event{Type: EventPromptReceived, Prompt: prompt, Metadata: metadata})

	classification := i.classifier.Classify(ctx, prompt)
	i.bus.Emit(Event{Type: EventClassified, Prompt: prompt, Classification: classification})

	evaluation, err := i.engine.Evaluate(classification.Category, classification)
	if err != nil {
		return nil, err
	}
	i.bus.Emit(Event{Type: EventEvaluated, Prompt: prompt, Evaluation: evaluation})

	if evaluation.Decision.Allowed() {
		_ = evaluation.AttachResponse(i.complete(ctx, prompt))
		i.bus.Emit(Event{Type: EventResponse, Prompt: prompt, Evaluation: evaluation})
	} else {
		i.bus.Emit(Event{Type: EventBlocked, Prompt: prompt, Evaluation: evaluation})
	}

	// Alert fan-out is independent of the decision branch: one event per
	// target, zero events for an empty target list.
	for _, target := range evaluation.Alerts {
		i.bus.Emit(Event{Type: EventAlert, Prompt: prompt, Evaluation: evaluation, AlertTarget: target})
	}

	i.auditLog.Record(prompt, classification, evaluation)

	return evaluation, nil
}

// complete invokes the downstream model, degrading any failure to the
// sentinel response string.
func (i *Interceptor) complete(ctx context.Context, prompt string) string {
	if i.completer == nil {
		return FailedResponse
	}
	text, err := i.completer.Complete(ctx, llm.Request{Prompt: prompt, MaxTokens: i.maxTokens})
	if err != nil {
		return FailedResponse
	}
	return text
}
