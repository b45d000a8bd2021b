// Package policydiff compares two policy files for review before rollout.
package policydiff

import (
	"fmt"
	"strings"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// Change represents a scalar field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// RuleChange represents a rule addition, removal, or modification.
type RuleChange struct {
	Type string `json:"type"` // "added", "removed", "changed"
	Rule string `json:"rule"`
}

// DiffResult holds the comparison of two policies.
type DiffResult struct {
	OldPath     string       `json:"old_path"`
	NewPath     string       `json:"new_path"`
	Changes     []Change     `json:"changes"`
	RuleChanges []RuleChange `json:"rule_changes"`
	HasChanges  bool         `json:"has_changes"`
}

// Diff compares two policies and returns the differences. Rules are keyed by
// id; a decision or category change on the same id is a modification.
func Diff(old, new *model.Policy) *DiffResult {
	r := &DiffResult{}

	diffScalar(r, "name", old.Name, new.Name)
	diffScalar(r, "version", old.Version, new.Version)
	diffScalar(r, "effective", old.Effective, new.Effective)

	diffCategories(r, old.Categories, new.Categories)
	diffRules(r, old.Rules, new.Rules)

	r.HasChanges = len(r.Changes) > 0 || len(r.RuleChanges) > 0
	return r
}

func diffScalar(r *DiffResult, field, old, new string) {
	if old != new {
		r.Changes = append(r.Changes, Change{Field: field, Old: old, New: new})
	}
}

func diffCategories(r *DiffResult, old, new []string) {
	oldSet := make(map[string]bool, len(old))
	for _, c := range old {
		oldSet[c] = true
	}
	newSet := make(map[string]bool, len(new))
	for _, c := range new {
		newSet[c] = true
	}

	for _, c := range new {
		if !oldSet[c] {
			r.Changes = append(r.Changes, Change{Field: "categories", New: c, Comment: "added"})
		}
	}
	for _, c := range old {
		if !newSet[c] {
			r.Changes = append(r.Changes, Change{Field: "categories", Old: c, Comment: "removed"})
		}
	}
}

func ruleLabel(rule model.Rule) string {
	return fmt.Sprintf("%s [%s] → %s", rule.ID, strings.Join(rule.MatchCategories, ", "), rule.Decision)
}

func diffRules(r *DiffResult, oldRules, newRules []model.Rule) {
	oldMap := make(map[string]model.Rule, len(oldRules))
	for _, rule := range oldRules {
		oldMap[rule.ID] = rule
	}
	newMap := make(map[string]model.Rule, len(newRules))
	for _, rule := range newRules {
		newMap[rule.ID] = rule
	}

	for _, rule := range newRules {
		oldRule, exists := oldMap[rule.ID]
		if !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{
				Type: "added",
				Rule: ruleLabel(rule),
			})
			continue
		}
		if desc := describeRuleChange(oldRule, rule); desc != "" {
			r.RuleChanges = append(r.RuleChanges, RuleChange{
				Type: "changed",
				Rule: fmt.Sprintf("%s: %s", rule.ID, desc),
			})
		}
	}

	for _, rule := range oldRules {
		if _, exists := newMap[rule.ID]; !exists {
			r.RuleChanges = append(r.RuleChanges, RuleChange{
				Type: "removed",
				Rule: ruleLabel(rule),
			})
		}
	}
}

// describeRuleChange reports what changed between two versions of a rule,
// or "" when they are equivalent for enforcement purposes.
func describeRuleChange(old, new model.Rule) string {
	var parts []string
	if old.Decision != new.Decision {
		parts = append(parts, fmt.Sprintf("decision %s → %s", old.Decision, new.Decision))
	}
	if oldCats, newCats := strings.Join(old.MatchCategories, ","), strings.Join(new.MatchCategories, ","); oldCats != newCats {
		parts = append(parts, fmt.Sprintf("match_categories [%s] → [%s]", oldCats, newCats))
	}
	if old.Audit != new.Audit {
		parts = append(parts, fmt.Sprintf("audit %s → %s", old.Audit, new.Audit))
	}
	if oldAlerts, newAlerts := strings.Join(old.Alerts, ","), strings.Join(new.Alerts, ","); oldAlerts != newAlerts {
		parts = append(parts, fmt.Sprintf("alerts [%s] → [%s]", oldAlerts, newAlerts))
	}
	if old.RequiresHuman != new.RequiresHuman {
		parts = append(parts, fmt.Sprintf("requires_human %t → %t", old.RequiresHuman, new.RequiresHuman))
	}
	return strings.Join(parts, "; ")
}
