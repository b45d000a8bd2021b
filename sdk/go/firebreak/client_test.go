package firebreak

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testPolicy = `
policy:
  name: sdk-test
  version: "1"
categories: [summarization, bulk_surveillance]
rules:
  - id: allow-summaries
    description: Summarization is permitted
    match_categories: [summarization]
    decision: ALLOW
  - id: block-surveillance
    description: Surveillance tasking is prohibited
    match_categories: [bulk_surveillance]
    decision: BLOCK
    audit: critical
    alerts: [trust_safety]
`

const testCache = `{
  "summarize this report": {"category": "summarization", "confidence": 0.92},
  "track every device": {"category": "bulk_surveillance", "confidence": 0.97}
}`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	cachePath := filepath.Join(dir, "cache.json")
	if err := os.WriteFile(policyPath, []byte(testPolicy), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cachePath, []byte(testCache), 0600); err != nil {
		t.Fatal(err)
	}

	c, err := New(WithPolicy(policyPath), WithCache(cachePath))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestEvaluateAllowed(t *testing.T) {
	c := newTestClient(t)

	result, err := c.Evaluate(context.Background(), "Summarize this report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Allowed() || result.RuleID != "allow-summaries" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Category != "summarization" {
		t.Errorf("category: %q", result.Category)
	}
}

func TestEvaluateBlockedIsNotAnError(t *testing.T) {
	c := newTestClient(t)

	result, err := c.Evaluate(context.Background(), "Track every device")
	if err != nil {
		t.Fatalf("blocked prompt must not error from Evaluate: %v", err)
	}
	if result.Allowed() || result.Decision != Block {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestEvaluateUnknownFailsClosed(t *testing.T) {
	c := newTestClient(t)

	result, err := c.Evaluate(context.Background(), "Write a haiku")
	if err != nil {
		t.Fatal(err)
	}
	if result.Decision != Block || result.RuleID != "unknown-intent" {
		t.Fatalf("fail-closed default expected: %+v", result)
	}
}

func TestNewRequiresValidPolicy(t *testing.T) {
	if _, err := New(WithPolicy(filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Fatal("expected error for missing policy file")
	}
}

func TestPolicyHashAndAudit(t *testing.T) {
	c := newTestClient(t)

	if c.PolicyHash() == "" {
		t.Error("policy hash must be set after file load")
	}

	if _, err := c.Evaluate(context.Background(), "Summarize this report"); err != nil {
		t.Fatal(err)
	}
	if c.AuditLog().Len() != 1 {
		t.Errorf("audit entries: %d", c.AuditLog().Len())
	}
	if err := c.AuditLog().Verify(); err != nil {
		t.Errorf("audit chain: %v", err)
	}
}

func TestWrapBlocksBeforeCalling(t *testing.T) {
	c := newTestClient(t)

	called := false
	guarded := c.Wrap(func(ctx context.Context, prompt string) (string, error) {
		called = true
		return "model output", nil
	})

	out, err := guarded(context.Background(), "Track every device")
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if called {
		t.Fatal("wrapped function must not run for a blocked prompt")
	}
	if out != "" || blocked.RuleID != "block-surveillance" {
		t.Fatalf("blocked: %+v", blocked)
	}

	out, err = guarded(context.Background(), "Summarize this report")
	if err != nil {
		t.Fatalf("allowed prompt: %v", err)
	}
	if !called || out != "model output" {
		t.Fatalf("wrapped function must run for allowed prompt, got %q", out)
	}
}
