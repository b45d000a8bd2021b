package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/firebreak-sh/firebreak/internal/policy"
)

// --- Input/Output types ---

// EvaluateInput defines parameters for the firebreak_evaluate tool.
type EvaluateInput struct {
	Prompt string `json:"prompt" jsonschema:"prompt text to evaluate"`
}

// EvaluateOutput contains the decision and, when allowed, the model response.
type EvaluateOutput struct {
	Decision    string   `json:"decision"`
	RuleID      string   `json:"rule_id"`
	Reason      string   `json:"reason,omitempty"`
	Category    string   `json:"category"`
	Confidence  float64  `json:"confidence"`
	Constraints []string `json:"constraints,omitempty"`
	Blocked     bool     `json:"blocked,omitempty"`
	Response    string   `json:"response,omitempty"`
}

// PolicyInput is empty; the policy tool takes no parameters.
type PolicyInput struct{}

// PolicyOutput describes the active policy.
type PolicyOutput struct {
	Name       string       `json:"name"`
	Version    string       `json:"version"`
	Hash       string       `json:"hash,omitempty"`
	Effective  string       `json:"effective,omitempty"`
	Categories []string     `json:"categories"`
	Rules      []PolicyRule `json:"rules"`
}

// PolicyRule is one rule in precedence order.
type PolicyRule struct {
	ID              string   `json:"id"`
	Description     string   `json:"description,omitempty"`
	MatchCategories []string `json:"match_categories"`
	Decision        string   `json:"decision"`
	Audit           string   `json:"audit"`
	Alerts          []string `json:"alerts,omitempty"`
}

// AuditInput defines parameters for the firebreak_audit tool.
type AuditInput struct {
	Limit      int  `json:"limit,omitempty" jsonschema:"maximum entries to return, newest kept"`
	AlertsOnly bool `json:"alerts_only,omitempty" jsonschema:"only entries that fired alerts"`
}

// AuditOutput lists audit entries in insertion order.
type AuditOutput struct {
	Total   int          `json:"total"`
	Entries []AuditEntry `json:"entries"`
}

// AuditEntry is one audit record.
type AuditEntry struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"ts"`
	Prompt    string  `json:"prompt"`
	Category  string  `json:"category"`
	Decision  string  `json:"decision"`
	RuleID    string  `json:"rule_id"`
	Alerts    int     `json:"alerts"`
	Hash      string  `json:"entry_hash"`
	Conf      float64 `json:"confidence"`
}

// --- Handlers ---

func (s *Server) handleEvaluate(ctx context.Context, req *mcpsdk.CallToolRequest, input EvaluateInput) (*mcpsdk.CallToolResult, EvaluateOutput, error) {
	evaluation, err := s.interceptor.EvaluateRequest(ctx, input.Prompt, map[string]string{"source": "mcp"})
	if err != nil {
		return nil, EvaluateOutput{}, err
	}

	out := EvaluateOutput{
		Decision:    string(evaluation.Decision),
		RuleID:      evaluation.RuleID,
		Reason:      evaluation.RuleDescription,
		Constraints: evaluation.Constraints,
	}
	if c := evaluation.Classification; c != nil {
		out.Category = c.Category
		out.Confidence = c.Confidence
	}

	if !evaluation.Decision.Allowed() {
		out.Blocked = true
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}

	out.Response = evaluation.LLMResponse
	return nil, out, nil
}

func (s *Server) handlePolicy(ctx context.Context, req *mcpsdk.CallToolRequest, input PolicyInput) (*mcpsdk.CallToolResult, PolicyOutput, error) {
	pol := s.engine.Policy()
	if pol == nil {
		return nil, PolicyOutput{}, policy.ErrNoPolicy
	}

	out := PolicyOutput{
		Name:       pol.Name,
		Version:    pol.Version,
		Hash:       s.engine.Hash(),
		Effective:  pol.Effective,
		Categories: pol.Categories,
	}
	for _, r := range pol.Rules {
		out.Rules = append(out.Rules, PolicyRule{
			ID:              r.ID,
			Description:     r.Description,
			MatchCategories: r.MatchCategories,
			Decision:        string(r.Decision),
			Audit:           string(r.Audit),
			Alerts:          r.Alerts,
		})
	}
	return nil, out, nil
}

func (s *Server) handleAudit(ctx context.Context, req *mcpsdk.CallToolRequest, input AuditInput) (*mcpsdk.CallToolResult, AuditOutput, error) {
	log := s.interceptor.AuditLog()

	entries := log.Entries()
	if input.AlertsOnly {
		entries = log.Alerts()
	}

	out := AuditOutput{Total: len(entries)}
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[len(entries)-input.Limit:]
	}

	for _, e := range entries {
		item := AuditEntry{
			ID:        e.ID,
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Prompt:    e.Prompt,
			Hash:      e.EntryHash,
		}
		if e.Classification != nil {
			item.Category = e.Classification.Category
			item.Conf = e.Classification.Confidence
		}
		if e.Evaluation != nil {
			item.Decision = string(e.Evaluation.Decision)
			item.RuleID = e.Evaluation.RuleID
			item.Alerts = len(e.Evaluation.Alerts)
		}
		out.Entries = append(out.Entries, item)
	}
	return nil, out, nil
}
