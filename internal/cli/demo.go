package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firebreak-sh/firebreak/internal/audit"
	"github.com/firebreak-sh/firebreak/internal/classifier"
	"github.com/firebreak-sh/firebreak/internal/dashboard"
	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/policy"
	"github.com/firebreak-sh/firebreak/internal/scenario"
)

var demoNoColor bool

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().BoolVar(&demoNoColor, "no-color", false, "Disable ANSI colors")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in defense-standard demo",
	Long:  "Runs the embedded demo scenarios through the full pipeline with a\nterminal dashboard. Works offline: classifications come from the\nembedded cache, so no completion service is needed.",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	pol, err := scenario.BuiltinPolicy()
	if err != nil {
		return fmt.Errorf("failed to load embedded policy: %w", err)
	}
	cache, err := scenario.BuiltinCache()
	if err != nil {
		return fmt.Errorf("failed to load embedded cache: %w", err)
	}
	s, err := scenario.BuiltinScenario()
	if err != nil {
		return fmt.Errorf("failed to load embedded scenarios: %w", err)
	}

	engine := policy.NewEngine()
	engine.SetPolicy(pol)

	ic := intercept.New(intercept.Config{
		Engine:     engine,
		Classifier: classifier.New(pol.Categories, cache, nil),
		AuditLog:   audit.New(),
	})

	d := dashboard.New(os.Stdout, !demoNoColor)
	d.Register(ic.Bus())

	fmt.Printf("=== firebreak demo: %s (policy %s v%s) ===\n\n", s.Name, pol.Name, pol.Version)

	result, err := scenario.Run(context.Background(), s, ic)
	if err != nil {
		return err
	}

	d.RenderSummary()

	if err := ic.AuditLog().Verify(); err != nil {
		return fmt.Errorf("audit chain verification failed: %w", err)
	}
	fmt.Printf("\naudit: %d entries, chain verified\n", ic.AuditLog().Len())

	if result.Failed > 0 {
		fmt.Print(scenario.FormatText([]*scenario.RunResult{result}))
		os.Exit(1)
	}
	return nil
}
