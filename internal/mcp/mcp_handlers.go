package mcp

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/perftimeline/core"
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/internal/outwriter"
	"github.com/huangsam/perftimeline/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	src     contract.LogSource
}

// buildTimeline runs the pipeline for the root named in the request, if any.
func (h *toolHandler) buildTimeline(ctx context.Context, request mcp.CallToolRequest) (*schema.TimelineResult, *mcp.CallToolResult) {
	cfg := h.baseCfg.Clone()
	if err := contract.RevalidateRoot(cfg, request.GetString("root", "")); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid root: %v", err))
	}

	result, err := core.BuildTimeline(core.WithSuppressHeader(ctx), cfg, h.src)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("timeline failed: %v", err))
	}
	return result, nil
}

func (h *toolHandler) handlePerfTimelineSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, errResult := h.buildTimeline(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	var buf bytes.Buffer
	if err := outwriter.WriteDigestJSON(&buf, result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handlePerfTimelineRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenario := request.GetString("scenario", "")
	if scenario != "" && !slices.Contains(schema.AllScenarios, schema.Scenario(scenario)) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown scenario %q", scenario)), nil
	}

	result, errResult := h.buildTimeline(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	cleanOnly := request.GetBool("clean_only", false)
	var records []*schema.NormalizedRecord
	for _, rec := range result.Records {
		if scenario != "" && string(rec.Scenario) != scenario {
			continue
		}
		if cleanOnly && rec.Contaminated() {
			continue
		}
		records = append(records, rec)
	}
	if l := request.GetInt("limit", 0); l > 0 && l < len(records) {
		records = records[len(records)-l:]
	}

	var buf bytes.Buffer
	if err := outwriter.WriteRecordsJSON(&buf, records); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handlePerfMilestones(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	if err := outwriter.PrintMilestones(&buf, h.baseCfg.Milestones, true); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
