package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/core/rules"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// configFor returns a copy of the base config re-rooted when the request names a root.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	if root := request.GetString("root", ""); root != "" {
		return h.baseCfg.WithRoot(root)
	}
	return h.baseCfg.Clone(), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleExtractPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid root: %v", err)), nil
	}
	if f := request.GetString("rules_file", ""); f != "" {
		cfg.RulesFile = f
	}

	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rules: %v", err)), nil
	}

	output, err := core.ExtractPatterns(core.WithSuppressOutput(ctx), cfg, rs, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pattern extraction failed: %v", err)), nil
	}
	return jsonResult(output.Report)
}

func (h *toolHandler) handlePredictNeeds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid root: %v", err)), nil
	}

	report, err := core.Predict(core.WithSuppressOutput(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleValidateCoverage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid root: %v", err)), nil
	}

	report, err := core.ValidateCoverage(core.WithSuppressOutput(ctx), cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("coverage validation failed: %v", err)), nil
	}
	return jsonResult(report)
}
