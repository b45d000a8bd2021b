package firebreak

import "context"

// PromptFunc is the function signature that Wrap guards: anything that sends
// a prompt somewhere and returns text.
type PromptFunc func(ctx context.Context, prompt string) (string, error)

// Wrap returns a PromptFunc that evaluates policy before calling fn.
// If policy blocks the prompt, fn is never called and a *BlockedError is
// returned. The evaluation is still audited and alerted either way.
// Clients used with Wrap normally omit WithCompleter: fn owns the model call.
func (c *Client) Wrap(fn PromptFunc) PromptFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		result, err := c.Evaluate(ctx, prompt)
		if err != nil {
			return "", err
		}

		if !result.Allowed() {
			return "", &BlockedError{
				Prompt:   prompt,
				Decision: result.Decision,
				RuleID:   result.RuleID,
				Reason:   result.Reason,
			}
		}

		return fn(ctx, prompt)
	}
}
