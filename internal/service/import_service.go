package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"birdwatch/internal/etl"
	_ "birdwatch/internal/etl/sources"
)

// ─────────────────────────────────────────────────────────────
// Import Service — bulk loads records from CSV or JSON files
// ─────────────────────────────────────────────────────────────

// ImportService feeds file rows through the regular Create* calls, so
// imported records get the same validation and events as API writes.
type ImportService struct {
	birds     *BirdService
	locations *LocationService
	sightings *SightingService
}

// NewImportService creates an ImportService.
func NewImportService(birds *BirdService, locations *LocationService, sightings *SightingService) *ImportService {
	return &ImportService{birds: birds, locations: locations, sightings: sightings}
}

// ImportFile loads every row of path into resource ("bird", "location" or
// "sighting"). The source type follows the file extension.
func (s *ImportService) ImportFile(ctx context.Context, resource, path string) (*etl.LoadResult, error) {
	source, err := etl.SourceForExtension(strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, invalid("%v", err)
	}
	sink, err := s.sinkFor(resource)
	if err != nil {
		return nil, err
	}

	result, err := etl.Run(ctx, source, etl.SourceConfig{"filePath": path}, sink)
	if err != nil {
		return result, fmt.Errorf("import %s: %w", path, err)
	}
	log.Printf("[IMPORT] %s → %s: %d read, %d written, %d failed", path, resource, result.RowsRead, result.RowsWritten, result.RowsFailed)
	return result, nil
}

func (s *ImportService) sinkFor(resource string) (etl.Sink, error) {
	switch resource {
	case "bird":
		return etl.SinkFunc(func(ctx context.Context, rec etl.Record) error {
			var in BirdInput
			if err := decodeRecord(rec, &in); err != nil {
				return err
			}
			_, err := s.birds.CreateBird(ctx, in)
			return err
		}), nil
	case "location":
		return etl.SinkFunc(func(ctx context.Context, rec etl.Record) error {
			var in LocationInput
			if err := decodeRecord(rec, &in); err != nil {
				return err
			}
			_, err := s.locations.CreateLocation(ctx, in)
			return err
		}), nil
	case "sighting":
		return etl.SinkFunc(func(ctx context.Context, rec etl.Record) error {
			var in SightingInput
			if err := decodeRecord(rec, &in); err != nil {
				return err
			}
			_, err := s.sightings.CreateSighting(ctx, in)
			return err
		}), nil
	default:
		return nil, invalid("cannot import into %q", resource)
	}
}

// decodeRecord maps a record onto an input struct through its json tags.
// Values are converted to the type of the field they land in, so "NO" stays
// a country code and "30.1" becomes a latitude. Columns the input does not
// know are ignored.
func decodeRecord(rec etl.Record, v any) error {
	kinds := fieldKinds(v)
	data := make(map[string]any, len(rec.Data))
	for col, val := range rec.Data {
		name := strings.ToLower(strings.TrimSpace(col))
		kind, ok := kinds[name]
		if !ok {
			continue
		}
		conv, err := convertField(name, val, kind)
		if err != nil {
			return err
		}
		data[name] = conv
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// fieldKinds lists the json names of v's fields with their underlying kind.
func fieldKinds(v any) map[string]reflect.Kind {
	t := reflect.TypeOf(v).Elem()
	out := make(map[string]reflect.Kind, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		out[name] = ft.Kind()
	}
	return out
}

func convertField(name string, val any, kind reflect.Kind) (any, error) {
	if val == nil {
		return nil, nil
	}
	switch kind {
	case reflect.String:
		switch x := val.(type) {
		case string:
			return x, nil
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64), nil
		default:
			return fmt.Sprint(x), nil
		}
	case reflect.Float32, reflect.Float64:
		if str, ok := val.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
			if err != nil {
				return nil, invalid("%s: %q is not a number", name, str)
			}
			return f, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if str, ok := val.(string); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
			if err != nil {
				return nil, invalid("%s: %q is not an integer", name, str)
			}
			return n, nil
		}
	}
	return val, nil
}
