package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/firebreak-sh/firebreak/internal/dashboard"
	"github.com/firebreak-sh/firebreak/internal/proxy"
)

var (
	servePort      int
	serveOpts      pipelineOpts
	serveDashboard bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port")
	serveCmd.Flags().StringVar(&serveOpts.policyPath, "policy", "", "Path to policy YAML (required)")
	serveCmd.Flags().StringVar(&serveOpts.cachePath, "cache", "", "Path to classifier cache JSON")
	serveCmd.Flags().StringVar(&serveOpts.alertsPath, "alerts", "", "Path to alert webhook YAML")
	serveCmd.Flags().BoolVar(&serveDashboard, "dashboard", false, "Render pipeline activity to the terminal")
	registerLLMFlags(serveCmd, &serveOpts)
	serveCmd.MarkFlagRequired("policy")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start OpenAI-compatible enforcement proxy",
	Long:  "Runs firebreak as an OpenAI-compatible HTTP proxy.\nEvery chat completion is classified and evaluated against policy before\nany model call. Supports hot-reload of the policy file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ic, engine, err := buildPipeline(ctx, serveOpts)
	if err != nil {
		return err
	}

	metrics := proxy.NewMetrics(prometheus.DefaultRegisterer)
	metrics.Register(ic.Bus())

	if serveDashboard {
		dashboard.New(os.Stdout, true).Register(ic.Bus())
	}

	srv, err := proxy.NewServer(proxy.Config{
		Port:        servePort,
		Interceptor: ic,
		Engine:      engine,
	})
	if err != nil {
		return fmt.Errorf("failed to create proxy server: %w", err)
	}

	reloader, err := proxy.NewReloader(engine, serveOpts.policyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}
	if reloader != nil {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down proxy...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "firebreak proxy listening on :%d\n", servePort)
	fmt.Fprintf(os.Stderr, "Policy: %s (%s, hot-reload enabled)\n", serveOpts.policyPath, engine.Hash())
	fmt.Fprintln(os.Stderr)

	return srv.Start(ctx)
}
