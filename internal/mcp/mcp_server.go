// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the pattern scan MCP server without starting it.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Nuxt Pattern Scan Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("extract_patterns",
		mcp.WithDescription("Scan a Nuxt project for recurring code patterns and return the pattern report with suggestions."),
		mcp.WithString("root", mcp.Description("Project root to scan (defaults to the configured root).")),
		mcp.WithString("rules_file", mcp.Description("Optional YAML rule table replacing the built-in patterns.")),
	), h.handleExtractPatterns)

	s.AddTool(mcp.NewTool("predict_needs",
		mcp.WithDescription("Inspect project structure and recent activity to predict upcoming development needs."),
		mcp.WithString("root", mcp.Description("Project root to inspect (defaults to the configured root).")),
	), h.handlePredictNeeds)

	s.AddTool(mcp.NewTool("validate_coverage",
		mcp.WithDescription("Validate the test coverage summary against the coverage thresholds and the unit/integration split."),
		mcp.WithString("root", mcp.Description("Project root holding the coverage summary (defaults to the configured root).")),
	), h.handleValidateCoverage)

	return s
}

// StartMCPServer serves the MCP tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
