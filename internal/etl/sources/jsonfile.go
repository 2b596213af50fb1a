package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"birdwatch/internal/etl"
)

// ── JSON File Source ────────────────────────────────────────
// Reads records from a local JSON file.

type jsonFileSource struct{}

func init() { etl.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:       "json_file",
		Label:      "JSON File",
		Extensions: []string{".json"},
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the JSON file"},
			{Key: "dataPath", Label: "Data Path", Help: "Dot-separated path to the array (e.g., 'data.items'). Leave empty if root is an array."},
		},
	}
}

func (s *jsonFileSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		records, err := readJSONFile(cfg)
		if err != nil {
			errCh <- err
			return
		}
		for _, rec := range records {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func readJSONFile(cfg etl.SourceConfig) ([]etl.Record, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	// Navigate to dataPath if specified.
	if dataPath, ok := cfg["dataPath"].(string); ok && dataPath != "" {
		parts := strings.Split(dataPath, ".")
		current := raw
		for _, part := range parts {
			if m, ok := current.(map[string]any); ok {
				current = m[part]
			} else {
				return nil, fmt.Errorf("invalid data path: %q not found", part)
			}
		}
		raw = current
	}

	return toRecords(raw)
}

// toRecords accepts an array of objects or a single object.
func toRecords(raw any) ([]etl.Record, error) {
	switch v := raw.(type) {
	case []any:
		out := make([]etl.Record, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is not an object", i)
			}
			out = append(out, etl.Record{Data: m})
		}
		return out, nil
	case map[string]any:
		return []etl.Record{{Data: v}}, nil
	default:
		return nil, fmt.Errorf("expected an array of objects, got %T", raw)
	}
}
