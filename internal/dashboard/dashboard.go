// Package dashboard is a passive terminal renderer subscribed to pipeline
// events. It observes; it never influences a decision.
package dashboard

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/model"
)

const (
	red    = "\033[0;31m"
	green  = "\033[0;32m"
	cyan   = "\033[0;36m"
	yellow = "\033[1;33m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	reset  = "\033[0m"
)

// Dashboard renders pipeline progress as colored terminal lines and keeps a
// running tally for the end-of-run summary.
type Dashboard struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	history []*model.Evaluation
	alerts  int
}

// New creates a dashboard writing to w. Set color false for plain output
// (pipes, CI logs).
func New(w io.Writer, color bool) *Dashboard {
	return &Dashboard{w: w, color: color}
}

// Register subscribes the dashboard to every pipeline event.
func (d *Dashboard) Register(bus *intercept.Bus) {
	bus.SubscribeAll(d.handle)
}

func (d *Dashboard) handle(e intercept.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch e.Type {
	case intercept.EventPromptReceived:
		fmt.Fprintf(d.w, "%s▶ %s%s\n", d.c(bold), truncate(e.Prompt, 72), d.c(reset))
	case intercept.EventClassified:
		c := e.Classification
		fmt.Fprintf(d.w, "  %sintent%s %s (%.2f)\n", d.c(dim), d.c(reset), c.Category, c.Confidence)
	case intercept.EventEvaluated:
		d.history = append(d.history, e.Evaluation)
		fmt.Fprintf(d.w, "  %s%s %s%s rule=%s\n",
			d.decisionColor(e.Evaluation.Decision), dot(d.color), e.Evaluation.Decision, d.c(reset), e.Evaluation.RuleID)
		for _, constraint := range e.Evaluation.Constraints {
			fmt.Fprintf(d.w, "    %sconstraint: %s%s\n", d.c(yellow), constraint, d.c(reset))
		}
	case intercept.EventResponse:
		fmt.Fprintf(d.w, "  %sresponse%s %s\n", d.c(cyan), d.c(reset), truncate(e.Evaluation.LLMResponse, 72))
	case intercept.EventBlocked:
		fmt.Fprintf(d.w, "  %sblocked%s %s\n", d.c(red), d.c(reset), e.Evaluation.RuleDescription)
	case intercept.EventAlert:
		d.alerts++
		fmt.Fprintf(d.w, "  %s⚠ alert → %s%s\n", d.c(red), e.AlertTarget, d.c(reset))
	}
}

// RenderSummary prints decision counts and the alert total.
func (d *Dashboard) RenderSummary() {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := map[model.Decision]int{}
	for _, ev := range d.history {
		counts[ev.Decision]++
	}

	fmt.Fprintf(d.w, "\n%sSummary (%s)%s\n", d.c(bold), time.Now().UTC().Format("15:04:05"), d.c(reset))
	fmt.Fprintf(d.w, "  evaluated: %d\n", len(d.history))
	fmt.Fprintf(d.w, "  %sallow:%s %d  %sconstrained:%s %d  %sblocked:%s %d\n",
		d.c(green), d.c(reset), counts[model.Allow],
		d.c(yellow), d.c(reset), counts[model.AllowConstrained],
		d.c(red), d.c(reset), counts[model.Block])
	fmt.Fprintf(d.w, "  alerts fired: %d\n", d.alerts)
}

func (d *Dashboard) decisionColor(dec model.Decision) string {
	if !d.color {
		return ""
	}
	switch dec {
	case model.Allow:
		return green
	case model.AllowConstrained:
		return yellow
	default:
		return red
	}
}

func (d *Dashboard) c(code string) string {
	if !d.color {
		return ""
	}
	return code
}

func dot(color bool) string {
	if color {
		return "●"
	}
	return "*"
}

// truncate counts runes, not bytes, so a cut never splits a multi-byte
// character in the rendered line.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
