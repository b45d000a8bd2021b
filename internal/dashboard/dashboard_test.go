package dashboard

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/model"
)

func TestDashboardRendersPipelineStages(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	cls := model.NewClassification("defensive_analysis", 0.88, "Analyze the logs")
	eval := &model.Evaluation{
		Decision:       model.Allow,
		RuleID:         "allow-analysis",
		AuditLevel:     model.AuditStandard,
		Classification: cls,
	}
	if err := eval.AttachResponse("Here is the analysis."); err != nil {
		t.Fatal(err)
	}

	bus.Emit(intercept.Event{Type: intercept.EventPromptReceived, Prompt: "Analyze the logs"})
	bus.Emit(intercept.Event{Type: intercept.EventClassified, Prompt: "Analyze the logs", Classification: cls})
	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: eval})
	bus.Emit(intercept.Event{Type: intercept.EventResponse, Evaluation: eval})

	out := buf.String()
	for _, want := range []string{
		"Analyze the logs",
		"defensive_analysis (0.88)",
		"ALLOW rule=allow-analysis",
		"Here is the analysis.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDashboardBlockedAndAlerts(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	eval := &model.Evaluation{
		Decision:        model.Block,
		RuleID:          "block-surveillance",
		RuleDescription: "Surveillance tasking is prohibited",
		AuditLevel:      model.AuditCritical,
	}
	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: eval})
	bus.Emit(intercept.Event{Type: intercept.EventBlocked, Evaluation: eval})
	bus.Emit(intercept.Event{Type: intercept.EventAlert, Evaluation: eval, AlertTarget: "trust_safety"})
	bus.Emit(intercept.Event{Type: intercept.EventAlert, Evaluation: eval, AlertTarget: "inspector_general"})

	out := buf.String()
	if !strings.Contains(out, "Surveillance tasking is prohibited") {
		t.Errorf("blocked line missing:\n%s", out)
	}
	if !strings.Contains(out, "alert → trust_safety") || !strings.Contains(out, "alert → inspector_general") {
		t.Errorf("alert lines missing:\n%s", out)
	}
}

func TestRenderSummaryCounts(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	for _, dec := range []model.Decision{model.Allow, model.Allow, model.AllowConstrained, model.Block} {
		bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: &model.Evaluation{Decision: dec, RuleID: "r"}})
	}
	bus.Emit(intercept.Event{Type: intercept.EventAlert, Evaluation: &model.Evaluation{}, AlertTarget: "t"})

	buf.Reset()
	d.RenderSummary()
	out := buf.String()

	for _, want := range []string{"evaluated: 4", "allow: 2", "constrained: 1", "blocked: 1", "alerts fired: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestColorCodesSuppressedWhenDisabled(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: &model.Evaluation{Decision: model.Block, RuleID: "r"}})
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("plain mode must not emit escape codes: %q", buf.String())
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	prompt := strings.Repeat("渗透测试报告", 20)
	bus.Emit(intercept.Event{Type: intercept.EventPromptReceived, Prompt: prompt})

	out := buf.String()
	if !strings.HasSuffix(strings.TrimRight(out, "\n"), "...") {
		t.Fatalf("long prompt should be truncated:\n%s", out)
	}
	if !utf8.ValidString(out) {
		t.Errorf("truncation split a multi-byte rune:\n%q", out)
	}
	if got := []rune(out); len(got) > 72+10 {
		t.Errorf("truncated line too long: %d runes", len(got))
	}
}

func TestConstraintsRendered(t *testing.T) {
	var buf strings.Builder
	d := New(&buf, false)
	bus := intercept.NewBus()
	d.Register(bus)

	eval := &model.Evaluation{
		Decision:    model.AllowConstrained,
		RuleID:      "constrain-threat-analysis",
		Constraints: []string{"no_target_identification", "strategic_level_only"},
	}
	bus.Emit(intercept.Event{Type: intercept.EventEvaluated, Evaluation: eval})

	out := buf.String()
	if !strings.Contains(out, "constraint: no_target_identification") {
		t.Errorf("constraints missing:\n%s", out)
	}
}
