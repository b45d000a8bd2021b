package firebreak

import (
	"context"
	"fmt"

	"github.com/firebreak-sh/firebreak/internal/alert"
	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

// Client holds the evaluation pipeline for in-process enforcement.
// Thread-safe for concurrent calls.
type Client struct {
	interceptor *intercept.Interceptor
	engine      *policy.Engine
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	engine := policy.NewEngine()
	pol, err := engine.Load(cfg.policyPath)
	if err != nil {
		return nil, fmt.Errorf("firebreak: failed to load policy: %w", err)
	}

	var cache *classifier.Cache
	if cfg.cachePath != "" {
		cache, err = classifier.LoadCache(cfg.cachePath)
		if err != nil {
			return nil, fmt.Errorf("firebreak: failed to load classifier cache: %w", err)
		}
	}

	ic := intercept.New(intercept.Config{
		Engine:     engine,
		Classifier: classifier.New(pol.Categories, cache, cfg.completer),
		AuditLog:   audit.New(),
		Completer:  cfg.completer,
	})

	if cfg.alertsPath != "" {
		alertCfgs, err := alert.LoadConfig(cfg.alertsPath)
		if err != nil {
			return nil, fmt.Errorf("firebreak: failed to load alert config: %w", err)
		}
		if d := alert.NewDispatcher(alertCfgs); d != nil {
			ic.Bus().Subscribe(intercept.EventAlert, alert.Observer(d, engine.Hash))
		}
	}

	return &Client{interceptor: ic, engine: engine}, nil
}

// Evaluate runs one prompt through the pipeline and returns the outcome.
// A blocked prompt is not an error; inspect Result.Decision.
func (c *Client) Evaluate(ctx context.Context, prompt string) (Result, error) {
	ev, err := c.interceptor.EvaluateRequest(ctx, prompt, map[string]string{"source": "sdk"})
	if err != nil {
		return Result{}, err
	}
	return toResult(ev), nil
}

// PolicyHash returns "sha256:<hex>" of the loaded policy file.
func (c *Client) PolicyHash() string {
	return c.engine.Hash()
}

// AuditLog exposes the audit log for inspection and chain verification.
func (c *Client) AuditLog() *audit.Log {
	return c.interceptor.AuditLog()
}
