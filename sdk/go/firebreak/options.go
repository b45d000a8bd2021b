package firebreak

import "github.com/firebreak-sh/firebreak/internal/llm"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath string
	cachePath  string
	alertsPath string
	completer  llm.Completer
}

// WithPolicy sets the path to a policy YAML file. Required.
func WithPolicy(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithCache sets the path to a classifier cache JSON file.
func WithCache(path string) Option {
	return func(c *clientConfig) { c.cachePath = path }
}

// WithAlerts sets the path to an alert webhook YAML file.
func WithAlerts(path string) Option {
	return func(c *clientConfig) { c.alertsPath = path }
}

// WithCompleter sets the completion client used for classification and for
// allowed prompts. Without one, classification relies on the cache alone and
// allowed prompts carry the failure sentinel instead of model output.
func WithCompleter(completer llm.Completer) Option {
	return func(c *clientConfig) { c.completer = completer }
}
