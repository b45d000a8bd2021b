// Package alert delivers pipeline alert events to external webhook channels.
// Delivery is best-effort and happens off the pipeline's call stack; the
// audit log, not the webhook, is the system of record.
package alert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WebhookConfig defines one webhook alert destination.
type WebhookConfig struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"`  // "generic", "slack", "pagerduty"
	Targets []string          `yaml:"targets" json:"targets"` // alert targets this webhook serves; empty = all
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Timestamp  string  `json:"timestamp"`
	Target     string  `json:"target"`
	Decision   string  `json:"decision"`
	RuleID     string  `json:"rule_id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Prompt     string  `json:"prompt"`
	AuditLevel string  `json:"audit_level"`
	PolicyHash string  `json:"policy_hash,omitempty"`
}

// webhookFile mirrors the on-disk alert configuration.
type webhookFile struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// LoadConfig reads webhook configurations from a YAML file.
func LoadConfig(path string) ([]WebhookConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alert config: %w", err)
	}
	var f webhookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alert config: %w", err)
	}
	for i, w := range f.Webhooks {
		if w.URL == "" {
			return nil, fmt.Errorf("webhook at index %d is missing required field: url", i)
		}
	}
	return f.Webhooks, nil
}
