package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerExportTools() {
	s.mcp.AddTool(mcp.NewTool("run_export",
		mcp.WithDescription("Export every sighting, rendered through a view, to the configured destination (sqlite, mysql, postgres or mongodb). Each run appends a new batch tagged with its run ID."),
		mcp.WithString("view", mcp.Description("Sighting view to export; defaults to the configured export view")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(false), IdempotentHint: boolPtr(false)}),
	), s.handleRunExport)

	s.mcp.AddTool(mcp.NewTool("last_export",
		mcp.WithDescription("Show the result of the most recent export run"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleLastExport)
}

func (s *Server) handleRunExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.export == nil || !s.export.Enabled() {
		return nil, fmt.Errorf("export is not configured (set BIRDWATCH_EXPORT_DRIVER)")
	}
	result, err := s.export.RunExport(ctx, req.GetString("view", ""))
	if err != nil {
		return nil, fmt.Errorf("run export: %w", err)
	}
	return jsonResult(result)
}

func (s *Server) handleLastExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.export == nil {
		return textResult("Export is not configured"), nil
	}
	last := s.export.LastResult()
	if last == nil {
		return textResult("No export has run yet"), nil
	}
	return jsonResult(last)
}
