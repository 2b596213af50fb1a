package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_view",
		mcp.WithPromptDescription("Guide through writing a projection for a resource and trying it out"),
		mcp.WithArgument("resource",
			mcp.ArgumentDescription("bird, location or sighting"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("goal",
			mcp.ArgumentDescription("What the output should contain"),
			mcp.RequiredArgument(),
		),
	), s.handleDesignViewPrompt)
}

func (s *Server) handleDesignViewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	resource := req.Params.Arguments["resource"]
	goal := req.Params.Arguments["goal"]

	sum, err := s.describeShape(resource)
	if err != nil {
		return nil, err
	}
	shapeJSON, _ := json.MarshalIndent(sum, "", "  ")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design a %s projection: %s", resource, goal),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a projection for "%s" records so that: %s

The resource looks like this:
%s

Rules:
1. "only" lists the exact fields to keep; "except" drops fields from the full set. If both are given, "only" wins.
2. Relations never appear unless listed under "include"; each included relation takes its own nested projection.
3. Names must exist on the resource, otherwise the call fails with no output.

Try the projection with list_%ss using the "projection" argument, then refine it. Compare with the named views in birdwatch://views.`, resource, goal, shapeJSON, resource),
				},
			},
		},
	}, nil
}
