package model

import (
	"fmt"
	"time"
)

// Decision is the policy enforcement outcome for a classified prompt.
// It is a flat enumeration, not a severity scale.
type Decision string

const (
	Allow            Decision = "ALLOW"
	AllowConstrained Decision = "ALLOW_CONSTRAINED"
	Block            Decision = "BLOCK"
)

// ParseDecision validates a raw decision value from external policy data.
// Anything outside the closed set is a structural error.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case Allow, AllowConstrained, Block:
		return Decision(s), nil
	default:
		return "", fmt.Errorf("invalid decision %q (must be one of ALLOW, ALLOW_CONSTRAINED, BLOCK)", s)
	}
}

// Allowed reports whether the decision permits a downstream model call.
func (d Decision) Allowed() bool {
	return d == Allow || d == AllowConstrained
}

// AuditLevel is the audit logging level for a policy evaluation.
// Informational only; it never affects decision logic.
type AuditLevel string

const (
	AuditStandard AuditLevel = "standard"
	AuditEnhanced AuditLevel = "enhanced"
	AuditCritical AuditLevel = "critical"
)

// ParseAuditLevel validates a raw audit level from external policy data.
func ParseAuditLevel(s string) (AuditLevel, error) {
	switch AuditLevel(s) {
	case AuditStandard, AuditEnhanced, AuditCritical:
		return AuditLevel(s), nil
	default:
		return "", fmt.Errorf("invalid audit level %q (must be one of standard, enhanced, critical)", s)
	}
}

// Rule is a single rule within a deployment policy. Rules are evaluated in
// declaration order; the first rule whose MatchCategories contains the
// classified intent category wins.
type Rule struct {
	ID              string
	Description     string
	MatchCategories []string
	Decision        Decision
	Audit           AuditLevel
	RequiresHuman   bool
	Constraints     []string
	Alerts          []string
	Color           string
	Note            string
}

// Matches reports whether the rule applies to the given intent category.
func (r *Rule) Matches(category string) bool {
	for _, c := range r.MatchCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Policy is a complete deployment policy loaded from YAML.
// Immutable once loaded; a reload replaces the whole Policy.
type Policy struct {
	Name        string
	Version     string
	Effective   string
	Signatories map[string]string
	Rules       []Rule
	Categories  []string
}

// Unclassified is the sentinel category returned when classification fails
// or produces an out-of-vocabulary category. It is an ordinary category value
// to the policy engine: unless some rule lists it explicitly, it falls
// through to the fail-closed default.
const Unclassified = "unclassified"

// Classification is the result of classifying a prompt's intent.
// Immutable after creation; cache hits are shared read-only.
type Classification struct {
	Category   string
	Confidence float64
	RawPrompt  string
	Timestamp  time.Time
}

// NewClassification stamps a classification with the current time.
func NewClassification(category string, confidence float64, prompt string) *Classification {
	return &Classification{
		Category:   category,
		Confidence: confidence,
		RawPrompt:  prompt,
		Timestamp:  time.Now().UTC(),
	}
}

// NewUnclassified returns the safe fallback classification for a prompt.
func NewUnclassified(prompt string) *Classification {
	return NewClassification(Unclassified, 0.0, prompt)
}

// Evaluation is the outcome of evaluating a classification against policy.
// All fields except LLMResponse are fixed at match time: alert targets and
// constraints are copied from the matched rule, never shared with it.
type Evaluation struct {
	Decision        Decision
	RuleID          string
	RuleDescription string
	AuditLevel      AuditLevel
	Alerts          []string
	Constraints     []string
	RequiresHuman   bool
	Color           string
	Note            string
	Classification  *Classification
	LLMResponse     string

	responseAttached bool
}

// AttachResponse records the downstream model response (or its failure
// sentinel). Only the interceptor calls this, at most once per evaluation.
func (e *Evaluation) AttachResponse(text string) error {
	if e.responseAttached {
		return fmt.Errorf("response already attached to evaluation for rule %q", e.RuleID)
	}
	e.LLMResponse = text
	e.responseAttached = true
	return nil
}

// AuditEntry is an immutable record in the audit log. Entries are never
// mutated or removed after append.
type AuditEntry struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"ts"`
	Prompt         string          `json:"prompt"`
	Classification *Classification `json:"-"`
	Evaluation     *Evaluation     `json:"-"`

	// Chain fields make the in-memory log tamper-evident:
	// each entry hashes its predecessor.
	PrevHash  string `json:"prev_hash"`
	EntryHash string `json:"entry_hash"`
}
