package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const viewsURI = "birdwatch://views"

func (s *Server) registerResources() {
	// ── birdwatch://views ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		viewsURI,
		"Projection Views",
		mcp.WithResourceDescription("Every named view per resource, with its projection"),
		mcp.WithMIMEType("application/json"),
	), s.handleViewsResource)

	// ── birdwatch://shapes/{resource} ──────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"birdwatch://shapes/{resource}",
			"Fields and relations of a resource",
		),
		s.handleShapeResource,
	)
}

func (s *Server) handleViewsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.views.Catalog().Views(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      viewsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// shapeSummary describes what a projection may name for one resource.
type shapeSummary struct {
	Resource  string            `json:"resource"`
	Fields    []string          `json:"fields"`
	Relations map[string]string `json:"relations"`
}

func (s *Server) describeShape(resource string) (*shapeSummary, error) {
	shape, ok := s.views.Catalog().Shapes().ByName(resource)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	sum := &shapeSummary{
		Resource:  resource,
		Fields:    shape.FieldNames(),
		Relations: make(map[string]string),
	}
	for _, name := range shape.RelationNames() {
		target, plural, _ := shape.Relation(name)
		kind := "one " + target.Name()
		if plural {
			kind = "many " + target.Name()
		}
		sum.Relations[name] = kind
	}
	return sum, nil
}

func (s *Server) handleShapeResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	resource := strings.TrimPrefix(uri, "birdwatch://shapes/")
	if resource == "" || resource == uri {
		return nil, fmt.Errorf("could not extract resource from URI: %s", uri)
	}
	sum, err := s.describeShape(resource)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(sum, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
