package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/firebreak-sh/firebreak/internal/model"
)

// rawFile mirrors the on-disk policy document. Validation happens after
// unmarshal so error messages can name the exact missing field.
type rawFile struct {
	Policy     *rawPolicy `yaml:"policy"`
	Categories []string   `yaml:"categories"`
	Rules      []rawRule  `yaml:"rules"`
}

type rawPolicy struct {
	Name string `yaml:"name"`
	// Version is a value-typed yaml.Node so numeric scalars (1.0, 2) keep
	// their source text instead of round-tripping through a float. yaml.v3
	// only short-circuits decoding into a yaml.Node value; a *yaml.Node
	// field is decoded as an ordinary struct and scalar versions fail.
	Version     yaml.Node         `yaml:"version"`
	Effective   string            `yaml:"effective"`
	Signatories map[string]string `yaml:"signatories"`
}

type rawRule struct {
	ID              string   `yaml:"id"`
	Description     string   `yaml:"description"`
	MatchCategories []string `yaml:"match_categories"`
	Decision        string   `yaml:"decision"`
	Audit           string   `yaml:"audit"`
	RequiresHuman   bool     `yaml:"requires_human"`
	Constraints     []string `yaml:"constraints"`
	Alerts          []string `yaml:"alerts"`
	Color           string   `yaml:"color"`
	Note            string   `yaml:"note"`
}

// Parse validates a YAML policy document and builds an immutable Policy.
// Structural defects fail fast with an error naming the missing field and,
// where possible, the offending rule id or index.
func Parse(data []byte) (*model.Policy, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	if raw.Policy == nil {
		return nil, fmt.Errorf("policy is missing required top-level section: policy")
	}
	if raw.Policy.Name == "" {
		return nil, fmt.Errorf("policy is missing required field: policy.name")
	}
	if raw.Policy.Version.IsZero() || raw.Policy.Version.Value == "" {
		return nil, fmt.Errorf("policy is missing required field: policy.version")
	}
	if len(raw.Rules) == 0 {
		return nil, fmt.Errorf("policy must contain a non-empty rules list")
	}

	rules := make([]model.Rule, 0, len(raw.Rules))
	seen := make(map[string]bool, len(raw.Rules))
	for i, rr := range raw.Rules {
		if rr.ID == "" {
			return nil, fmt.Errorf("rule at index %d is missing required field: id", i)
		}
		if seen[rr.ID] {
			return nil, fmt.Errorf("rule %q: duplicate rule id", rr.ID)
		}
		seen[rr.ID] = true

		if rr.Decision == "" {
			return nil, fmt.Errorf("rule %q is missing required field: decision", rr.ID)
		}
		decision, err := model.ParseDecision(rr.Decision)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rr.ID, err)
		}

		if len(rr.MatchCategories) == 0 {
			return nil, fmt.Errorf("rule %q is missing required field: match_categories", rr.ID)
		}

		auditRaw := rr.Audit
		if auditRaw == "" {
			auditRaw = string(model.AuditStandard)
		}
		audit, err := model.ParseAuditLevel(auditRaw)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rr.ID, err)
		}

		color := rr.Color
		if color == "" {
			color = "green"
		}

		rules = append(rules, model.Rule{
			ID:              rr.ID,
			Description:     rr.Description,
			MatchCategories: append([]string(nil), rr.MatchCategories...),
			Decision:        decision,
			Audit:           audit,
			RequiresHuman:   rr.RequiresHuman,
			Constraints:     append([]string(nil), rr.Constraints...),
			Alerts:          append([]string(nil), rr.Alerts...),
			Color:           color,
			Note:            rr.Note,
		})
	}

	signatories := raw.Policy.Signatories
	if signatories == nil {
		signatories = map[string]string{}
	}

	return &model.Policy{
		Name:        raw.Policy.Name,
		Version:     raw.Policy.Version.Value,
		Effective:   raw.Policy.Effective,
		Signatories: signatories,
		Rules:       rules,
		Categories:  append([]string(nil), raw.Categories...),
	}, nil
}

// Load reads and parses a policy YAML file.
func Load(path string) (*model.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// LoadWithHash loads a policy file and returns the SHA-256 of the raw bytes
// on disk, so audit entries and alerts can pin the exact policy text that
// produced a decision.
func LoadWithHash(path string) (*model.Policy, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read policy file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, "", err
	}
	h := sha256.Sum256(data)
	return p, "sha256:" + hex.EncodeToString(h[:]), nil
}
