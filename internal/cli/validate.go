package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/firebreak-sh/firebreak/internal/policy"
)

var validateStrict bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
}

var validateCmd = &cobra.Command{
	Use:   "validate <policy.yaml>",
	Short: "Validate a policy file",
	Long: "Checks a policy file for structural defects (missing fields, bad\n" +
		"decisions, duplicate rule ids) and lints for shadowed or undeclared\n" +
		"match categories. Structural defects fail; lint findings warn.",
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	pol, hash, err := policy.LoadWithHash(path)
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	fmt.Printf("policy %q v%s (%s)\n", pol.Name, pol.Version, hash)
	fmt.Printf("  %d rules, %d categories\n", len(pol.Rules), len(pol.Categories))

	warnings := 0
	for _, s := range policy.FindShadowedCategories(pol) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", s)
		warnings++
	}

	unknown := policy.FindUnknownCategories(pol)
	ruleIDs := make([]string, 0, len(unknown))
	for id := range unknown {
		ruleIDs = append(ruleIDs, id)
	}
	sort.Strings(ruleIDs)
	for _, id := range ruleIDs {
		for _, c := range unknown[id] {
			fmt.Fprintf(os.Stderr, "warning: rule %q matches undeclared category %q\n", id, c)
			warnings++
		}
	}

	if warnings > 0 {
		fmt.Fprintf(os.Stderr, "\n%d warning(s)\n", warnings)
		if validateStrict {
			os.Exit(1)
		}
	} else {
		fmt.Println("  no lint findings")
	}
	return nil
}
