package alert

import (
	"bytes"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxAttempts    = 3
)

var httpClient = &http.Client{Timeout: requestTimeout}

// Send delivers one alert event to a webhook endpoint. Transport failures
// and 5xx responses are retried up to maxAttempts with linear backoff; a 4xx
// means the endpoint rejected the payload and retrying cannot help, so the
// attempt budget is not spent on it.
func Send(cfg WebhookConfig, event Event) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("webhook %s: format %q payload: %w", cfg.URL, cfg.Format, err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(time.Duration(attempt-1) * time.Second)
		}

		status, err := post(cfg, body)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return nil
		case status >= 400 && status < 500:
			return fmt.Errorf("webhook %s rejected alert for target %q: HTTP %d", cfg.URL, event.Target, status)
		default:
			lastErr = fmt.Errorf("HTTP %d", status)
		}
	}

	return fmt.Errorf("webhook %s: alert for target %q undelivered after %d attempts: %w",
		cfg.URL, event.Target, maxAttempts, lastErr)
}

// post performs a single delivery attempt and returns the response status.
func post(cfg WebhookConfig, body []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
