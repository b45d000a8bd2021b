package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Policy diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s → %s\n", r.OldPath, r.NewPath)

	scalars := filterScalars(r.Changes)
	categories := filterField(r.Changes, "categories")

	if len(scalars) > 0 {
		b.WriteString("\n")
		for _, c := range scalars {
			fmt.Fprintf(&b, "  %-12s %s → %s\n", c.Field+":", c.Old, c.New)
		}
	}

	if len(categories) > 0 {
		b.WriteString("\n  Categories:\n")
		for _, c := range categories {
			switch c.Comment {
			case "added":
				fmt.Fprintf(&b, "    + %s\n", c.New)
			case "removed":
				fmt.Fprintf(&b, "    - %s\n", c.Old)
			}
		}
	}

	if len(r.RuleChanges) > 0 {
		b.WriteString("\n  Rules:\n")
		for _, rc := range r.RuleChanges {
			switch rc.Type {
			case "added":
				fmt.Fprintf(&b, "    + %s\n", rc.Rule)
			case "removed":
				fmt.Fprintf(&b, "    - %s\n", rc.Rule)
			case "changed":
				fmt.Fprintf(&b, "    ~ %s\n", rc.Rule)
			}
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func filterScalars(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if c.Field != "categories" {
			out = append(out, c)
		}
	}
	return out
}

func filterField(changes []Change, field string) []Change {
	var out []Change
	for _, c := range changes {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}
