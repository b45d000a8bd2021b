package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firebreak-sh/firebreak/internal/alert"
	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/llm"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

// pipelineOpts collects the flag values shared by serve, mcp, and demo.
type pipelineOpts struct {
	policyPath string
	cachePath  string
	alertsPath string

	llmProvider  string // openai, bedrock, or none
	llmAPIURL    string
	llmModel     string
	bedrockModel string
	awsRegion    string
}

// buildPipeline wires the full evaluation pipeline from flag values. The
// alert observer is subscribed before anything else so webhook fan-out
// precedes any later observers in registration order.
func buildPipeline(ctx context.Context, opts pipelineOpts) (*intercept.Interceptor, *policy.Engine, error) {
	engine := policy.NewEngine()
	pol, err := engine.Load(opts.policyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load policy: %w", err)
	}

	var cache *classifier.Cache
	if opts.cachePath != "" {
		cache, err = classifier.LoadCache(opts.cachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load classifier cache: %w", err)
		}
	}

	completer, err := buildCompleter(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	ic := intercept.New(intercept.Config{
		Engine:     engine,
		Classifier: classifier.New(pol.Categories, cache, completer),
		AuditLog:   audit.New(),
		Completer:  completer,
	})

	if opts.alertsPath != "" {
		cfgs, err := alert.LoadConfig(opts.alertsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load alert config: %w", err)
		}
		if d := alert.NewDispatcher(cfgs); d != nil {
			ic.Bus().Subscribe(intercept.EventAlert, alert.Observer(d, engine.Hash))
		}
	}

	return ic, engine, nil
}

// buildCompleter picks the downstream completion client. A nil completer is
// valid: classification then relies on the cache alone, and allowed prompts
// carry the failure sentinel.
func buildCompleter(ctx context.Context, opts pipelineOpts) (llm.Completer, error) {
	switch opts.llmProvider {
	case "", "none":
		return nil, nil
	case "openai":
		if opts.llmAPIURL == "" {
			return nil, fmt.Errorf("--llm-api-url is required with --llm openai")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIURL: opts.llmAPIURL,
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  opts.llmModel,
		}), nil
	case "bedrock":
		return llm.NewBedrockClient(ctx, llm.BedrockConfig{
			Region:          opts.awsRegion,
			ModelID:         opts.bedrockModel,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q (openai, bedrock, none)", opts.llmProvider)
	}
}

// registerLLMFlags adds the shared completion-service flags to a command.
func registerLLMFlags(cmd *cobra.Command, opts *pipelineOpts) {
	f := cmd.Flags()
	f.StringVar(&opts.llmProvider, "llm", "none", "Completion provider (openai|bedrock|none)")
	f.StringVar(&opts.llmAPIURL, "llm-api-url", "", "OpenAI-compatible chat completions URL")
	f.StringVar(&opts.llmModel, "llm-model", "", "Model name for the OpenAI provider")
	f.StringVar(&opts.bedrockModel, "bedrock-model", "", "Bedrock model id for the bedrock provider")
	f.StringVar(&opts.awsRegion, "aws-region", "", "AWS region for the bedrock provider")
}
