// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the perftimeline MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, src contract.LogSource) *server.MCPServer {
	s := server.NewMCPServer(
		"Perf Timeline Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		src:     src,
	}

	// --- 1. Tool: perf_timeline_summary ---
	s.AddTool(mcp.NewTool("perf_timeline_summary",
		mcp.WithDescription("Scan perf logs and return the baseline record, the current comparable samples and their medians."),
		mcp.WithString("root", mcp.Description("Directory containing logs/ (defaults to the configured root).")),
	), h.handlePerfTimelineSummary)

	// --- 2. Tool: perf_timeline_records ---
	s.AddTool(mcp.NewTool("perf_timeline_records",
		mcp.WithDescription("Return normalized perf records in timeline order, optionally filtered."),
		mcp.WithString("root", mcp.Description("Directory containing logs/.")),
		mcp.WithString("scenario", mcp.Description("Only records of this scenario."), mcp.Enum("ws-cluster-5x-test", "test-run", "bp-multi", "other")),
		mcp.WithBoolean("clean_only", mcp.Description("Drop records carrying anomaly flags.")),
		mcp.WithNumber("limit", mcp.Description("Return only the most recent N records.")),
	), h.handlePerfTimelineRecords)

	// --- 3. Tool: perf_milestones ---
	s.AddTool(mcp.NewTool("perf_milestones",
		mcp.WithDescription("List the optimization milestones used to tag records, as a markdown table."),
	), h.handlePerfMilestones)

	return s
}

// StartServer serves the perftimeline tools over stdio.
func StartServer(_ context.Context, baseCfg *contract.Config, src contract.LogSource) error {
	s := NewMCPServer(baseCfg, src)
	return server.ServeStdio(s)
}
