package policy

import (
	"errors"
	"sync"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// ErrNoPolicy is returned by Evaluate before any policy has been loaded.
var ErrNoPolicy = errors.New("no policy loaded")

// UnknownIntentRuleID is the synthesized rule id for the fail-closed default.
const UnknownIntentRuleID = "unknown-intent"

// TrustSafetyTarget is the alert target notified when no rule matches.
const TrustSafetyTarget = "trust_safety"

// Engine holds the active policy and evaluates intent categories against it.
// The policy is owned exclusively by the engine; SetPolicy replaces it
// wholesale, never patches it in place.
type Engine struct {
	mu     sync.RWMutex
	policy *model.Policy
	hash   string
}

// NewEngine returns an engine with no policy loaded.
func NewEngine() *Engine {
	return &Engine{}
}

// Load reads, validates, and installs a policy file.
func (e *Engine) Load(path string) (*model.Policy, error) {
	p, hash, err := LoadWithHash(path)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.policy = p
	e.hash = hash
	e.mu.Unlock()
	return p, nil
}

// SetPolicy installs an already-parsed policy (used by tests and embedded
// demo assets).
func (e *Engine) SetPolicy(p *model.Policy) {
	e.mu.Lock()
	e.policy = p
	e.hash = ""
	e.mu.Unlock()
}

// Policy returns the active policy, or nil if none is loaded.
func (e *Engine) Policy() *model.Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// Hash returns "sha256:<hex>" of the active policy file, or "" when the
// policy was installed without a file.
func (e *Engine) Hash() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hash
}

// Evaluate scans rules in declaration order and returns the evaluation built
// from the first rule matching the intent category. Rule order encodes
// precedence: if two rules list the same category, the earlier one always
// wins. When no rule matches, including the "unclassified" sentinel unless
// some rule lists it, the result is the fail-closed default: BLOCK under
// rule id "unknown-intent" with a trust_safety alert. An unrecognized intent
// must never default to ALLOW.
func (e *Engine) Evaluate(category string, classification *model.Classification) (*model.Evaluation, error) {
	e.mu.RLock()
	p := e.policy
	e.mu.RUnlock()

	if p == nil {
		return nil, ErrNoPolicy
	}

	for i := range p.Rules {
		r := &p.Rules[i]
		if r.Matches(category) {
			return &model.Evaluation{
				Decision:        r.Decision,
				RuleID:          r.ID,
				RuleDescription: r.Description,
				AuditLevel:      r.Audit,
				Alerts:          append([]string(nil), r.Alerts...),
				Constraints:     append([]string(nil), r.Constraints...),
				RequiresHuman:   r.RequiresHuman,
				Color:           r.Color,
				Note:            r.Note,
				Classification:  classification,
			}, nil
		}
	}

	return &model.Evaluation{
		Decision:        model.Block,
		RuleID:          UnknownIntentRuleID,
		RuleDescription: "No matching rule for intent category",
		AuditLevel:      model.AuditCritical,
		Alerts:          []string{TrustSafetyTarget},
		Constraints:     []string{},
		Color:           "red",
		Classification:  classification,
	}, nil
}
