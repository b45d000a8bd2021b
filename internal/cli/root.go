package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "firebreak",
	Short: "Policy enforcement between users and AI models",
	Long:  "Intercepts prompts before they reach a model, classifies intent, and enforces a signed deployment policy. Unknown intent is blocked, never allowed.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
