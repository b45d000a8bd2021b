// Package scenario runs prompt fixtures through the pipeline and checks the
// decisions against expectations. Used for demos and policy regression runs.
package scenario

// Case is one prompt with its expected classification and decision.
type Case struct {
	ID             string `yaml:"id"`
	Prompt         string `yaml:"prompt"`
	ExpectCategory string `yaml:"expect_category,omitempty"`
	ExpectDecision string `yaml:"expect_decision"`
	Narration      string `yaml:"narration,omitempty"`
}

// Scenario is a named collection of prompt test cases.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one case.
type CaseResult struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Passed   bool   `json:"passed"`
	Prompt   string `json:"prompt"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Category string `json:"category"`
	RuleID   string `json:"rule_id"`
}

// RunResult is the outcome of running all cases in one scenario.
type RunResult struct {
	File   string       `json:"file,omitempty"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
