package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/llm"
	"github.com/firebreak-sh/firebreak/internal/model"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "echo: " + req.Prompt, nil
}

func testServer(t *testing.T) (*Server, *policy.Engine) {
	t.Helper()

	engine := policy.NewEngine()
	engine.SetPolicy(&model.Policy{
		Name:    "test-policy",
		Version: "1",
		Rules: []model.Rule{
			{
				ID:              "allow-analysis",
				Description:     "Defensive analysis is permitted",
				MatchCategories: []string{"defensive_analysis"},
				Decision:        model.Allow,
				Audit:           model.AuditStandard,
			},
			{
				ID:              "block-surveillance",
				Description:     "Surveillance tasking is prohibited",
				MatchCategories: []string{"bulk_surveillance"},
				Decision:        model.Block,
				Audit:           model.AuditCritical,
				Alerts:          []string{"trust_safety"},
			},
		},
		Categories: []string{"defensive_analysis", "bulk_surveillance"},
	})

	cache := classifier.NewCacheFromBootstrap(map[string]classifier.BootstrapEntry{
		"analyze the logs":   {Category: "defensive_analysis", Confidence: 0.9},
		"track every person": {Category: "bulk_surveillance", Confidence: 0.95},
	})
	cls := classifier.New([]string{"defensive_analysis", "bulk_surveillance"}, cache, nil)

	ic := intercept.New(intercept.Config{
		Engine:     engine,
		Classifier: cls,
		AuditLog:   audit.New(),
		Completer:  echoCompleter{},
	})

	srv, err := NewServer(Config{Port: 0, Interceptor: ic, Engine: engine})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, engine
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("health: HTTP %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["policy"] != "test-policy" {
		t.Errorf("health body: %v", body)
	}
}

func TestModels(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var body struct {
		Object string `json:"object"`
		Data   []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Object != "list" || len(body.Data) != 1 || body.Data[0].ID != "firebreak-proxy" {
		t.Errorf("models body: %+v", body)
	}
}

func TestChatCompletionAllowed(t *testing.T) {
	srv, _ := testServer(t)
	rec := postChat(t, srv.Handler(), `{"model":"gpt-4","messages":[{"role":"user","content":"Analyze the logs"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("HTTP %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(body.ID, "chatcmpl-") {
		t.Errorf("completion id: %q", body.ID)
	}
	if body.Object != "chat.completion" || body.Model != "firebreak-proxy" {
		t.Errorf("envelope: %+v", body)
	}
	if len(body.Choices) != 1 || body.Choices[0].Message.Content != "echo: Analyze the logs" {
		t.Errorf("choices: %+v", body.Choices)
	}
}

func TestChatCompletionBlocked(t *testing.T) {
	srv, _ := testServer(t)
	rec := postChat(t, srv.Handler(), `{"messages":[{"role":"user","content":"Track every person"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("HTTP %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Type != "policy_violation" || body.Error.Code != "content_policy_violation" {
		t.Errorf("error body: %+v", body.Error)
	}
	if !strings.Contains(body.Error.Message, "block-surveillance") {
		t.Errorf("message must name the rule: %q", body.Error.Message)
	}
}

func TestChatCompletionBadRequests(t *testing.T) {
	srv, _ := testServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"no messages", `{"messages":[]}`},
		{"no user message", `{"messages":[{"role":"system","content":"hi"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postChat(t, srv.Handler(), tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("HTTP %d", rec.Code)
			}
			var body struct {
				Error struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Error.Type != "invalid_request_error" {
				t.Errorf("error type: %q", body.Error.Type)
			}
		})
	}
}

func TestChatCompletionUsesLastUserMessage(t *testing.T) {
	srv, _ := testServer(t)
	rec := postChat(t, srv.Handler(), `{"messages":[
		{"role":"user","content":"Track every person"},
		{"role":"assistant","content":"no"},
		{"role":"user","content":"Analyze the logs"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("last user message governs the decision, got HTTP %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReloaderHotSwapsPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	v1 := `
policy:
  name: reload-test
  version: "1"
categories: [defensive_analysis]
rules:
  - id: allow-all
    description: permit everything
    match_categories: [defensive_analysis]
    decision: ALLOW
`
	if err := os.WriteFile(path, []byte(v1), 0600); err != nil {
		t.Fatal(err)
	}

	engine := policy.NewEngine()
	if _, err := engine.Load(path); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	firstHash := engine.Hash()

	r, err := NewReloader(engine, path)
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	v2 := strings.Replace(v1, `version: "1"`, `version: "2"`, 1)
	if err := os.WriteFile(path, []byte(v2), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for engine.Hash() == firstHash && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if engine.Hash() == firstHash {
		t.Fatal("policy hash unchanged after file rewrite")
	}
	if engine.Policy().Version != "2" {
		t.Errorf("version after reload: %q", engine.Policy().Version)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reloader did not stop on context cancel")
	}
}

func TestReloaderKeepsPolicyOnBadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	v1 := `
policy:
  name: reload-test
  version: "1"
categories: [defensive_analysis]
rules:
  - id: allow-all
    description: permit everything
    match_categories: [defensive_analysis]
    decision: ALLOW
`
	if err := os.WriteFile(path, []byte(v1), 0600); err != nil {
		t.Fatal(err)
	}

	engine := policy.NewEngine()
	if _, err := engine.Load(path); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	firstHash := engine.Hash()

	r, err := NewReloader(engine, path)
	if err != nil {
		t.Fatalf("new reloader: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if err := os.WriteFile(path, []byte("policy: [broken\n"), 0600); err != nil {
		t.Fatal(err)
	}

	// Past the debounce window; a failed reload must leave the engine alone.
	time.Sleep(1200 * time.Millisecond)

	if engine.Hash() != firstHash {
		t.Error("policy hash changed after unparseable rewrite")
	}
	if engine.Policy().Version != "1" {
		t.Errorf("version after failed reload: %q", engine.Policy().Version)
	}
}
