package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"birdwatch/internal/projection"
)

// DefaultView is the view used when a request names none.
const DefaultView = "default"

// ErrUnknownView is returned for a resource/view pair the catalog lacks.
var ErrUnknownView = errors.New("unknown view")

// Set maps resource → view name → projection.
type Set map[string]map[string]projection.Spec

// Defaults returns the compiled-in views. The sighting default is the
// classic shape: own fields minus updated_at, the bird's name and species,
// and the location's coordinates.
func Defaults() Set {
	noTimestamps := projection.Except("created_at", "updated_at")
	return Set{
		Sighting: {
			DefaultView: projection.Except("updated_at").With(
				projection.Include("bird", projection.Only("name", "species")),
				projection.Include("location", projection.Only("latitude", "longitude")),
			),
			"summary": projection.Only("id", "created_at").With(
				projection.Include("bird", projection.Only("name")),
			),
			"full": projection.Spec{}.With(
				projection.Include("bird", projection.Spec{}),
				projection.Include("location", projection.Spec{}),
			),
		},
		Bird: {
			DefaultView: noTimestamps,
			"with_sightings": noTimestamps.With(
				projection.Include("sightings", projection.Only("id", "location_id", "created_at")),
			),
		},
		Location: {
			DefaultView: noTimestamps,
			"with_sightings": noTimestamps.With(
				projection.Include("sightings", projection.Only("id", "bird_id", "created_at")),
			),
		},
	}
}

// Merge returns a copy of s with every view of other laid over it.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s))
	for res, views := range s {
		out[res] = make(map[string]projection.Spec, len(views))
		for name, spec := range views {
			out[res][name] = spec
		}
	}
	for res, views := range other {
		if out[res] == nil {
			out[res] = make(map[string]projection.Spec, len(views))
		}
		for name, spec := range views {
			out[res][name] = spec
		}
	}
	return out
}

// ReadFile decodes a views file of the form
//
//	{"sighting": {"default": {"except": ["updated_at"], "include": {...}}}}
func ReadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read views: %w", err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse views %s: %w", path, err)
	}
	return set, nil
}

// ── Catalog ────────────────────────────────────────────────

// Catalog is an immutable, validated set of views bound to the shapes.
type Catalog struct {
	shapes *Shapes
	views  Set
}

// NewCatalog validates every view against its shape. A view naming a field
// or relation the record does not have fails here, at load time, rather
// than on the first request that uses it.
func NewCatalog(shapes *Shapes, views Set) (*Catalog, error) {
	for _, res := range sortedKeys(views) {
		shape, ok := shapes.ByName(res)
		if !ok {
			return nil, fmt.Errorf("views: unknown resource %q", res)
		}
		for _, name := range sortedKeys(views[res]) {
			if err := projection.Validate(shape, views[res][name]); err != nil {
				return nil, fmt.Errorf("views: %s/%s: %w", res, name, err)
			}
		}
	}
	return &Catalog{shapes: shapes, views: views}, nil
}

// Shapes returns the shapes the catalog was validated against.
func (c *Catalog) Shapes() *Shapes { return c.shapes }

// Spec returns a named view; an empty name selects DefaultView.
func (c *Catalog) Spec(resource, view string) (projection.Spec, error) {
	if view == "" {
		view = DefaultView
	}
	spec, ok := c.views[resource][view]
	if !ok {
		return projection.Spec{}, fmt.Errorf("%w: %s/%s", ErrUnknownView, resource, view)
	}
	return spec, nil
}

// Names lists the view names of every resource, sorted.
func (c *Catalog) Names() map[string][]string {
	out := make(map[string][]string, len(c.views))
	for res, views := range c.views {
		out[res] = sortedKeys(views)
	}
	return out
}

// Views returns the raw view set.
func (c *Catalog) Views() Set { return c.views }

// For builds a serializer for records of type T from a named view.
func For[T any](c *Catalog, resource, view string) (*projection.Serializer[T], error) {
	spec, err := c.Spec(resource, view)
	if err != nil {
		return nil, err
	}
	return Inline[T](c, resource, spec)
}

// Inline builds a serializer for an ad-hoc spec, validated against the
// resource's shape.
func Inline[T any](c *Catalog, resource string, spec projection.Spec) (*projection.Serializer[T], error) {
	shape, ok := c.shapes.ByName(resource)
	if !ok {
		return nil, fmt.Errorf("views: unknown resource %q", resource)
	}
	return projection.NewSerializer[T](shape, spec)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
