package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/firebreak-sh/firebreak/internal/intercept"
)

// Run evaluates all cases through the interceptor. Cases run sequentially
// through the same pipeline, so the shared audit log accumulates one entry
// per case.
func Run(ctx context.Context, s *Scenario, ic *intercept.Interceptor) (*RunResult, error) {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		evaluation, err := ic.EvaluateRequest(ctx, c.Prompt, map[string]string{"source": "scenario", "case": c.ID})
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.ID, err)
		}

		cr := CaseResult{
			Index:    i + 1,
			ID:       c.ID,
			Prompt:   c.Prompt,
			Expected: strings.ToUpper(c.ExpectDecision),
			Actual:   string(evaluation.Decision),
			RuleID:   evaluation.RuleID,
		}
		if evaluation.Classification != nil {
			cr.Category = evaluation.Classification.Category
		}

		cr.Passed = cr.Actual == cr.Expected
		if c.ExpectCategory != "" && cr.Category != c.ExpectCategory {
			cr.Passed = false
		}

		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result, nil
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario is missing required field: name")
	}
	if len(s.Cases) == 0 {
		return nil, fmt.Errorf("scenario must contain a non-empty cases list")
	}
	for i, c := range s.Cases {
		if c.Prompt == "" {
			return nil, fmt.Errorf("case at index %d is missing required field: prompt", i)
		}
		if c.ExpectDecision == "" {
			return nil, fmt.Errorf("case at index %d is missing required field: expect_decision", i)
		}
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and runs it through the interceptor.
func LoadAndRun(ctx context.Context, path string, ic *intercept.Interceptor) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	result, err := Run(ctx, s, ic)
	if err != nil {
		return nil, err
	}
	result.File = path
	return result, nil
}
