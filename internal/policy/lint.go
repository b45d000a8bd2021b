package policy

import (
	"fmt"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// ShadowedCategory describes a category claimed by two rules. First match
// wins, so the later rule is dead for that category. Loading does not reject
// this (the earlier rule keeps winning) but validation surfaces it instead
// of normalizing it silently.
type ShadowedCategory struct {
	Category   string
	WinnerID   string
	ShadowedID string
}

func (s ShadowedCategory) String() string {
	return fmt.Sprintf("category %q in rule %q is shadowed by earlier rule %q",
		s.Category, s.ShadowedID, s.WinnerID)
}

// FindShadowedCategories reports every category that a later rule can never
// match because an earlier rule already lists it.
func FindShadowedCategories(p *model.Policy) []ShadowedCategory {
	var out []ShadowedCategory
	winner := make(map[string]string)
	for _, r := range p.Rules {
		for _, c := range r.MatchCategories {
			if w, ok := winner[c]; ok {
				out = append(out, ShadowedCategory{Category: c, WinnerID: w, ShadowedID: r.ID})
				continue
			}
			winner[c] = r.ID
		}
	}
	return out
}

// FindUnknownCategories reports rule match categories that are not declared
// in the policy's categories list. The classifier can never produce them, so
// the rule entry is unreachable.
func FindUnknownCategories(p *model.Policy) map[string][]string {
	if len(p.Categories) == 0 {
		return nil
	}
	declared := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		declared[c] = true
	}
	// The fallback sentinel is always producible.
	declared[model.Unclassified] = true

	out := make(map[string][]string)
	for _, r := range p.Rules {
		for _, c := range r.MatchCategories {
			if !declared[c] {
				out[r.ID] = append(out[r.ID], c)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
