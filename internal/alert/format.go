package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("firebreak: %s", event.Decision),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Target:* %s", event.Target)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Rule:* %s", event.RuleID)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Category:* %s (%.2f)", event.Category, event.Confidence)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Prompt:* %s", event.Prompt)},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	severity := "info"
	switch event.AuditLevel {
	case "critical":
		severity = "critical"
	case "enhanced":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("firebreak %s: rule %s fired for %s", event.Decision, event.RuleID, event.Target),
			"severity": severity,
			"source":   "firebreak",
			"custom_details": map[string]any{
				"target":      event.Target,
				"rule_id":     event.RuleID,
				"category":    event.Category,
				"confidence":  event.Confidence,
				"prompt":      event.Prompt,
				"policy_hash": event.PolicyHash,
			},
		},
	}
	return json.Marshal(payload)
}
