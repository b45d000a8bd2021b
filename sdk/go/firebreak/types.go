package firebreak

import (
	"fmt"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// Decision is the policy enforcement outcome.
type Decision string

const (
	Allow            Decision = Decision(model.Allow)
	AllowConstrained Decision = Decision(model.AllowConstrained)
	Block            Decision = Decision(model.Block)
)

// Result is a policy evaluation outcome for one prompt.
type Result struct {
	Decision    Decision
	RuleID      string
	Reason      string
	Category    string
	Confidence  float64
	Constraints []string
	Response    string // model output, set only for allowed prompts
}

// Allowed returns true if the decision permits a model call.
func (r Result) Allowed() bool {
	return r.Decision == Allow || r.Decision == AllowConstrained
}

// BlockedError is returned by wrapped functions when policy blocks a prompt.
type BlockedError struct {
	Prompt   string
	Decision Decision
	RuleID   string
	Reason   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("firebreak blocked (%s): rule %s: %s", e.Decision, e.RuleID, e.Reason)
}

// toResult maps an internal evaluation to an SDK Result.
func toResult(ev *model.Evaluation) Result {
	r := Result{
		Decision:    Decision(ev.Decision),
		RuleID:      ev.RuleID,
		Reason:      ev.RuleDescription,
		Constraints: ev.Constraints,
		Response:    ev.LLMResponse,
	}
	if c := ev.Classification; c != nil {
		r.Category = c.Category
		r.Confidence = c.Confidence
	}
	return r
}
