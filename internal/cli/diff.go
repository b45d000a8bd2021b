package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firebreak-sh/firebreak/internal/policy"
	"github.com/firebreak-sh/firebreak/internal/policydiff"
)

var diffFormat string

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Compare two policy files",
	Long: "Compares two policy files and reports rule additions, removals, and\n" +
		"decision changes. Review before rolling a new policy out.\n\n" +
		"Exit code 0 if identical, 2 if they differ.",
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldPol, err := policy.Load(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	newPol, err := policy.Load(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}

	result := policydiff.Diff(oldPol, newPol)
	result.OldPath = args[0]
	result.NewPath = args[1]

	switch diffFormat {
	case "json":
		out, err := policydiff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(policydiff.FormatText(result))
	}

	if result.HasChanges {
		os.Exit(2)
	}
	return nil
}
