package alert

import (
	"time"

	"github.com/firebreak-sh/firebreak/internal/intercept"
)

// Observer adapts a Dispatcher to the pipeline event bus. The returned
// handler is safe to run on the pipeline's stack: Dispatch hands delivery to
// goroutines, so the pipeline never waits on a webhook.
func Observer(d *Dispatcher, policyHash func() string) intercept.Handler {
	return func(e intercept.Event) {
		if d == nil || e.Type != intercept.EventAlert {
			return
		}
		ev := Event{
			Timestamp:  time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Target:     e.AlertTarget,
			Decision:   string(e.Evaluation.Decision),
			RuleID:     e.Evaluation.RuleID,
			AuditLevel: string(e.Evaluation.AuditLevel),
			Prompt:     e.Prompt,
		}
		if c := e.Evaluation.Classification; c != nil {
			ev.Category = c.Category
			ev.Confidence = c.Confidence
		}
		if policyHash != nil {
			ev.PolicyHash = policyHash()
		}
		d.Dispatch(ev)
	}
}
