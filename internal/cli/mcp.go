package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	fbmcp "github.com/firebreak-sh/firebreak/internal/mcp"
)

var mcpOpts pipelineOpts

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpOpts.policyPath, "policy", "", "Path to policy YAML (required)")
	mcpCmd.Flags().StringVar(&mcpOpts.cachePath, "cache", "", "Path to classifier cache JSON")
	mcpCmd.Flags().StringVar(&mcpOpts.alertsPath, "alerts", "", "Path to alert webhook YAML")
	registerLLMFlags(mcpCmd, &mcpOpts)
	mcpCmd.MarkFlagRequired("policy")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long:  "Runs firebreak as an MCP (Model Context Protocol) server over stdio.\nExposes policy-enforced tools: evaluate, policy, audit.",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ic, engine, err := buildPipeline(ctx, mcpOpts)
	if err != nil {
		return err
	}

	srv, err := fbmcp.New(fbmcp.Config{Interceptor: ic, Engine: engine})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "firebreak MCP server running on stdio")
	fmt.Fprintf(os.Stderr, "Policy: %s (%s)\n", mcpOpts.policyPath, engine.Hash())
	fmt.Fprintln(os.Stderr)

	return srv.Run(ctx)
}
