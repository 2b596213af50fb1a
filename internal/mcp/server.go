package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"birdwatch/internal/service"
	"birdwatch/internal/views"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for birdwatch.
// It exposes tools, resources, and prompts so AI agents can read records
// through the same views the HTTP API uses.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter
	views   *views.Registry

	birds     *service.BirdService
	locations *service.LocationService
	sightings *service.SightingService
	export    *service.ExportService
}

// Deps holds all dependencies passed from main to the MCP server.
// Export may be nil.
type Deps struct {
	Emitter   service.EventEmitter
	Views     *views.Registry
	Birds     *service.BirdService
	Locations *service.LocationService
	Sightings *service.SightingService
	Export    *service.ExportService
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.NoopEmitter{}
	}
	s := &Server{
		emitter:   emitter,
		views:     deps.Views,
		birds:     deps.Birds,
		locations: deps.Locations,
		sightings: deps.Sightings,
		export:    deps.Export,
	}

	s.mcp = server.NewMCPServer(
		"birdwatch-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerRecordTools()
	s.registerExportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

// emitChanged notifies listeners that an agent changed a record.
func (s *Server) emitChanged(ctx context.Context, resource string, id int64) {
	s.emitter.Emit(ctx, "mcp:records-changed", map[string]any{"resource": resource, "id": id})
}
