package mcpserver

import (
	"context"
	"fmt"

	"birdwatch/internal/domain"
	"birdwatch/internal/service"
	"birdwatch/internal/views"

	"github.com/mark3labs/mcp-go/mcp"
)

const projectionHelp = `Inline projection as JSON, overrides "view". Shape: {"only": [...], "except": [...], "include": {"relation": {...}}}. "only" wins over "except"; relations appear only when included.`

func (s *Server) registerRecordTools() {
	s.mcp.AddTool(mcp.NewTool("list_birds",
		mcp.WithDescription("List all birds, rendered through a view or an inline projection"),
		mcp.WithString("view", mcp.Description("Named view (see birdwatch://views); defaults to \"default\"")),
		mcp.WithString("projection", mcp.Description(projectionHelp)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListBirds)

	s.mcp.AddTool(mcp.NewTool("list_locations",
		mcp.WithDescription("List all locations, rendered through a view or an inline projection"),
		mcp.WithString("view", mcp.Description("Named view (see birdwatch://views); defaults to \"default\"")),
		mcp.WithString("projection", mcp.Description(projectionHelp)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListLocations)

	s.mcp.AddTool(mcp.NewTool("list_sightings",
		mcp.WithDescription("List all sightings, rendered through a view or an inline projection. Include \"bird\" and \"location\" to embed them."),
		mcp.WithString("view", mcp.Description("Named view (see birdwatch://views); defaults to \"default\"")),
		mcp.WithString("projection", mcp.Description(projectionHelp)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListSightings)

	s.mcp.AddTool(mcp.NewTool("get_sighting",
		mcp.WithDescription("Get one sighting by ID"),
		mcp.WithNumber("id", mcp.Description("Sighting ID"), mcp.Required()),
		mcp.WithString("view", mcp.Description("Named view; defaults to \"default\"")),
		mcp.WithString("projection", mcp.Description(projectionHelp)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetSighting)

	s.mcp.AddTool(mcp.NewTool("record_sighting",
		mcp.WithDescription("Record that a bird was seen at a location"),
		mcp.WithNumber("birdId", mcp.Description("Bird ID"), mcp.Required()),
		mcp.WithNumber("locationId", mcp.Description("Location ID"), mcp.Required()),
		mcp.WithString("view", mcp.Description("View used to render the new sighting")),
	), s.handleRecordSighting)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBirds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return listRecords(ctx, s, req, views.Bird, s.birds.ListBirds)
}

func (s *Server) handleListLocations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return listRecords(ctx, s, req, views.Location, s.locations.ListLocations)
}

func (s *Server) handleListSightings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return listRecords(ctx, s, req, views.Sighting, s.sightings.ListSightings)
}

func listRecords[T any](ctx context.Context, s *Server, req mcp.CallToolRequest, resource string, list func(context.Context) ([]T, error)) (*mcp.CallToolResult, error) {
	ser, err := serializerFor[T](s, resource, req)
	if err != nil {
		return nil, err
	}
	records, err := list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	out, err := ser.SerializeAll(ctx, records)
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) handleGetSighting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(req.GetInt("id", 0))
	if id <= 0 {
		return nil, fmt.Errorf("id is required")
	}
	ser, err := serializerFor[domain.Sighting](s, views.Sighting, req)
	if err != nil {
		return nil, err
	}
	sg, err := s.sightings.GetSighting(ctx, id)
	if err != nil {
		return nil, err
	}
	obj, err := ser.Serialize(ctx, *sg)
	if err != nil {
		return nil, err
	}
	return jsonResult(obj)
}

func (s *Server) handleRecordSighting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	birdID := int64(req.GetInt("birdId", 0))
	locationID := int64(req.GetInt("locationId", 0))
	if birdID <= 0 || locationID <= 0 {
		return nil, fmt.Errorf("birdId and locationId are required")
	}
	ser, err := serializerFor[domain.Sighting](s, views.Sighting, req)
	if err != nil {
		return nil, err
	}
	sg, err := s.sightings.CreateSighting(ctx, service.SightingInput{BirdID: &birdID, LocationID: &locationID})
	if err != nil {
		return nil, fmt.Errorf("record sighting: %w", err)
	}
	s.emitChanged(ctx, views.Sighting, sg.ID)

	obj, err := ser.Serialize(ctx, *sg)
	if err != nil {
		return nil, err
	}
	return jsonResult(obj)
}
