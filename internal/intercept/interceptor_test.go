package intercept

import (
	"context"
	"errors"
	"testing"

	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/llm"
	"github.com/firebreak-sh/firebreak/internal/model"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

// recordingCompleter plays the downstream model.
type recordingCompleter struct {
	response string
	err      error
	calls    int
}

func (r *recordingCompleter) Complete(_ context.Context, _ llm.Request) (string, error) {
	r.calls++
	return r.response, r.err
}

func testEngine(t *testing.T, rules ...model.Rule) *policy.Engine {
	t.Helper()
	e := policy.NewEngine()
	e.SetPolicy(&model.Policy{Name: "test", Version: "1", Rules: rules})
	return e
}

func cachedClassifier(entries map[string]classifier.BootstrapEntry) *classifier.Classifier {
	cache := classifier.NewCacheFromBootstrap(entries)
	var categories []string
	for _, e := range entries {
		categories = append(categories, e.Category)
	}
	return classifier.New(categories, cache, nil)
}

func TestScenarioAllowedAnalysis(t *testing.T) {
	engine := testEngine(t, model.Rule{
		ID:              "allow-analysis",
		MatchCategories: []string{"summarization", "translation"},
		Decision:        model.Allow,
		Audit:           model.AuditStandard,
	})
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{
		"Summarize this.": {Category: "summarization", Confidence: 0.88},
	})
	downstream := &recordingCompleter{response: "A concise summary."}
	log := audit.New()

	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: log, Completer: downstream})

	ev, err := ic.EvaluateRequest(context.Background(), "Summarize this.", nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Decision != model.Allow || ev.RuleID != "allow-analysis" {
		t.Errorf("decision %q rule %q", ev.Decision, ev.RuleID)
	}
	if ev.Classification.Category != "summarization" || ev.Classification.Confidence != 0.88 {
		t.Errorf("classification: %+v", ev.Classification)
	}
	if downstream.calls != 1 {
		t.Errorf("downstream must be invoked once, got %d", downstream.calls)
	}
	if ev.LLMResponse != "A concise summary." {
		t.Errorf("response not attached: %q", ev.LLMResponse)
	}
	if log.Len() != 1 {
		t.Errorf("audit log length: %d", log.Len())
	}
}

func TestScenarioBlockedSurveillance(t *testing.T) {
	engine := testEngine(t, model.Rule{
		ID:              "block-surveillance",
		MatchCategories: []string{"bulk_surveillance"},
		Decision:        model.Block,
		Audit:           model.AuditCritical,
		Alerts:          []string{"trust_safety", "inspector_general"},
	})
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{
		"Track everyone downtown.": {Category: "bulk_surveillance", Confidence: 0.95},
	})
	downstream := &recordingCompleter{response: "should never be seen"}
	log := audit.New()

	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: log, Completer: downstream})

	var alertTargets []string
	ic.Bus().Subscribe(EventAlert, func(e Event) {
		alertTargets = append(alertTargets, e.AlertTarget)
	})

	ev, err := ic.EvaluateRequest(context.Background(), "Track everyone downtown.", nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Decision != model.Block {
		t.Errorf("decision: %q", ev.Decision)
	}
	if downstream.calls != 0 {
		t.Errorf("downstream must never be invoked for BLOCK, got %d calls", downstream.calls)
	}
	if ev.LLMResponse != "" {
		t.Errorf("blocked evaluation must carry no response: %q", ev.LLMResponse)
	}
	if len(alertTargets) != 2 || alertTargets[0] != "trust_safety" || alertTargets[1] != "inspector_general" {
		t.Errorf("alert fan-out: %v", alertTargets)
	}
	if log.Len() != 1 {
		t.Errorf("audit log length: %d", log.Len())
	}
}

func TestEventOrdering(t *testing.T) {
	engine := testEngine(t, model.Rule{
		ID:              "allow-analysis",
		MatchCategories: []string{"summarization"},
		Decision:        model.Allow,
		Audit:           model.AuditStandard,
		Alerts:          []string{"oversight"},
	})
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{
		"p": {Category: "summarization", Confidence: 0.9},
	})
	log := audit.New()
	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: log, Completer: &recordingCompleter{response: "ok"}})

	var order []EventType
	var auditLenAtAlert int
	ic.Bus().SubscribeAll(func(e Event) {
		order = append(order, e.Type)
		if e.Type == EventAlert {
			auditLenAtAlert = log.Len()
		}
	})

	if _, err := ic.EvaluateRequest(context.Background(), "p", nil); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	want := []EventType{EventPromptReceived, EventClassified, EventEvaluated, EventResponse, EventAlert}
	if len(order) != len(want) {
		t.Fatalf("events: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q (full order %v)", i, order[i], want[i], order)
		}
	}
	if auditLenAtAlert != 0 {
		t.Error("audit append must happen after alerting")
	}
}

func TestBlockedEventOrdering(t *testing.T) {
	engine := testEngine(t) // no rules: everything falls through to fail-closed BLOCK
	cls := classifier.New(nil, nil, nil)
	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: audit.New()})

	var order []EventType
	ic.Bus().SubscribeAll(func(e Event) { order = append(order, e.Type) })

	ev, err := ic.EvaluateRequest(context.Background(), "whatever", nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.RuleID != policy.UnknownIntentRuleID {
		t.Errorf("rule id: %q", ev.RuleID)
	}

	want := []EventType{EventPromptReceived, EventClassified, EventEvaluated, EventBlocked, EventAlert}
	if len(order) != len(want) {
		t.Fatalf("events: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestDownstreamFailureDegradesToSentinel(t *testing.T) {
	engine := testEngine(t, model.Rule{
		ID:              "allow-analysis",
		MatchCategories: []string{"summarization"},
		Decision:        model.Allow,
		Audit:           model.AuditStandard,
	})
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{
		"p": {Category: "summarization", Confidence: 0.9},
	})
	ic := New(Config{
		Engine:     engine,
		Classifier: cls,
		AuditLog:   audit.New(),
		Completer:  &recordingCompleter{err: errors.New("timeout")},
	})

	ev, err := ic.EvaluateRequest(context.Background(), "p", nil)
	if err != nil {
		t.Fatalf("downstream failure must not surface: %v", err)
	}
	if ev.LLMResponse != FailedResponse {
		t.Errorf("expected sentinel response, got %q", ev.LLMResponse)
	}
}

func TestNoPolicySurfacesStateError(t *testing.T) {
	ic := New(Config{
		Engine:     policy.NewEngine(),
		Classifier: classifier.New(nil, nil, nil),
		AuditLog:   audit.New(),
	})
	if _, err := ic.EvaluateRequest(context.Background(), "p", nil); !errors.Is(err, policy.ErrNoPolicy) {
		t.Fatalf("expected ErrNoPolicy, got %v", err)
	}
}

func TestAuditCompletenessAcrossDecisions(t *testing.T) {
	engine := testEngine(t,
		model.Rule{ID: "allow-analysis", MatchCategories: []string{"summarization"}, Decision: model.Allow, Audit: model.AuditStandard},
		model.Rule{ID: "block-surveillance", MatchCategories: []string{"bulk_surveillance"}, Decision: model.Block, Audit: model.AuditCritical, Alerts: []string{"trust_safety"}},
	)
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{
		"summarize":   {Category: "summarization", Confidence: 0.9},
		"track these": {Category: "bulk_surveillance", Confidence: 0.8},
	})
	log := audit.New()
	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: log, Completer: &recordingCompleter{response: "ok"}})

	prompts := []string{"summarize", "track these", "completely unknown"}
	for _, p := range prompts {
		if _, err := ic.EvaluateRequest(context.Background(), p, nil); err != nil {
			t.Fatalf("evaluate(%q): %v", p, err)
		}
	}

	if log.Len() != len(prompts) {
		t.Fatalf("every call must append exactly one entry: got %d, want %d", log.Len(), len(prompts))
	}

	alerts := log.Alerts()
	if len(alerts) != 2 {
		t.Fatalf("alert view: got %d entries, want 2", len(alerts))
	}
	if alerts[0].Prompt != "track these" || alerts[1].Prompt != "completely unknown" {
		t.Errorf("alert view order: %q, %q", alerts[0].Prompt, alerts[1].Prompt)
	}
	if err := log.Verify(); err != nil {
		t.Errorf("chain must verify: %v", err)
	}
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	engine := testEngine(t, model.Rule{ID: "r", MatchCategories: []string{"summarization"}, Decision: model.Allow, Audit: model.AuditStandard})
	cls := cachedClassifier(map[string]classifier.BootstrapEntry{"p": {Category: "summarization", Confidence: 1}})
	ic := New(Config{Engine: engine, Classifier: cls, AuditLog: audit.New()})

	var seen []int
	ic.Bus().Subscribe(EventEvaluated, func(Event) { seen = append(seen, 1) })
	ic.Bus().Subscribe(EventEvaluated, func(Event) { seen = append(seen, 2) })
	ic.Bus().Subscribe(EventEvaluated, func(Event) { seen = append(seen, 3) })

	if _, err := ic.EvaluateRequest(context.Background(), "p", nil); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("registration order not preserved: %v", seen)
	}
}
