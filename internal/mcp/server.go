// Package mcp exposes the interception pipeline as MCP tools over stdio, so
// agent runtimes can route prompts through policy enforcement natively.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

// Config holds MCP server configuration.
type Config struct {
	Interceptor *intercept.Interceptor
	Engine      *policy.Engine
}

// Server wraps the MCP SDK server around the evaluation pipeline.
type Server struct {
	mcpServer   *mcpsdk.Server
	interceptor *intercept.Interceptor
	engine      *policy.Engine
}

// New creates an MCP server with the pipeline tools registered.
func New(cfg Config) (*Server, error) {
	if cfg.Interceptor == nil {
		return nil, fmt.Errorf("mcp server requires an interceptor")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("mcp server requires a policy engine")
	}

	s := &Server{
		interceptor: cfg.Interceptor,
		engine:      cfg.Engine,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "firebreak",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all firebreak tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "firebreak_evaluate",
		Description: "Evaluate a prompt through firebreak policy enforcement. Blocked prompts return the matched rule and reason instead of a model response.",
	}, s.handleEvaluate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "firebreak_policy",
		Description: "Describe the active policy: name, version, hash, categories, and rules in precedence order.",
	}, s.handlePolicy)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "firebreak_audit",
		Description: "List recent audit log entries, most recent last. Optionally only entries that fired alerts.",
	}, s.handleAudit)
}
