package mcpserver

import (
	"encoding/json"
	"fmt"

	"birdwatch/internal/projection"
	"birdwatch/internal/views"

	"github.com/mark3labs/mcp-go/mcp"
)

// projectionArg reads the optional "projection" argument, which may come
// as a JSON string or as a raw JSON object.
func projectionArg(args map[string]any) (string, error) {
	switch v := args["projection"].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("projection: %w", err)
		}
		return string(b), nil
	}
}

// serializerFor builds a serializer from an inline projection when one is
// given, otherwise from the named view (default when empty).
func serializerFor[T any](s *Server, resource string, req mcp.CallToolRequest) (*projection.Serializer[T], error) {
	cat := s.views.Catalog()
	raw, err := projectionArg(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if raw != "" {
		spec, err := projection.ParseSpec(raw)
		if err != nil {
			return nil, err
		}
		return views.Inline[T](cat, resource, spec)
	}
	return views.For[T](cat, resource, req.GetString("view", ""))
}
