package scenario

import (
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/model"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

//go:embed assets/policy.yaml
var builtinPolicyYAML []byte

//go:embed assets/scenarios.yaml
var builtinScenariosYAML []byte

//go:embed assets/classifier_cache.json
var builtinCacheJSON []byte

// BuiltinPolicy parses the embedded defense-standard demo policy.
func BuiltinPolicy() (*model.Policy, error) {
	return policy.Parse(builtinPolicyYAML)
}

// BuiltinScenario parses the embedded demo scenario.
func BuiltinScenario() (*Scenario, error) {
	return Parse(builtinScenariosYAML)
}

// BuiltinCache builds a classifier cache pre-seeded for the demo prompts, so
// the demo runs offline without a live classification service.
func BuiltinCache() (*classifier.Cache, error) {
	var raw map[string]classifier.BootstrapEntry
	if err := json.Unmarshal(builtinCacheJSON, &raw); err != nil {
		return nil, fmt.Errorf("parse embedded classifier cache: %w", err)
	}
	return classifier.NewCacheFromBootstrap(raw), nil
}
