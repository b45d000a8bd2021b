// Package firebreak provides in-process prompt policy enforcement for Go
// applications. It runs the full interception pipeline (intent
// classification, ordered rule matching with a fail-closed default, alerting,
// tamper-evident audit) before a prompt ever reaches a model.
//
// Usage:
//
//	fb, err := firebreak.New(
//	    firebreak.WithPolicy("policies/defense-standard.yaml"),
//	    firebreak.WithCache("demo/classifier_cache.json"),
//	)
//	guarded := fb.Wrap(callModel)
//	out, err := guarded(ctx, userPrompt)
//	var blocked *firebreak.BlockedError
//	if errors.As(err, &blocked) {
//	    // policy refused the prompt; blocked.RuleID names the rule
//	}
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/firebreak-sh/firebreak/sdk/go/firebreak.
package firebreak
