package projection

import (
	"context"
	"fmt"
)

// ── Projector ──────────────────────────────────────────────
// Single-pass recursive transformation: pick the base fields of the
// current level, then descend into every included relation. Recursion
// depth is bounded by the nesting of Include, so cyclic shapes are fine.

// Validate checks every name in spec against shape, recursing into
// included relations. It returns *UnknownFieldError or *UnknownRelationError.
func Validate(shape *Shape, spec Spec) error {
	return validate(shape, spec, shape.name)
}

func validate(shape *Shape, spec Spec, path string) error {
	for _, name := range spec.Only {
		if !shape.HasField(name) {
			return &UnknownFieldError{Path: path, Field: name}
		}
	}
	for _, name := range spec.Except {
		if !shape.HasField(name) {
			return &UnknownFieldError{Path: path, Field: name}
		}
	}
	for _, inc := range spec.Include {
		if !shape.HasRelation(inc.Relation) {
			return &UnknownRelationError{Path: path, Relation: inc.Relation}
		}
		rel := shape.relation(inc.Relation)
		if err := validate(rel.target, inc.Spec, path+"."+inc.Relation); err != nil {
			return err
		}
	}
	return nil
}

// Project renders one record through spec. The spec is validated first,
// so a configuration error never yields partial output.
func Project(ctx context.Context, shape *Shape, record any, spec Spec) (Object, error) {
	if err := Validate(shape, spec); err != nil {
		return nil, err
	}
	return project(ctx, shape, record, spec)
}

// ProjectAll renders every record independently and preserves input order.
// An empty input yields an empty, non-nil slice.
func ProjectAll[T any](ctx context.Context, shape *Shape, records []T, spec Spec) ([]Object, error) {
	if err := Validate(shape, spec); err != nil {
		return nil, err
	}
	return projectAll(ctx, shape, records, spec)
}

func projectAll[T any](ctx context.Context, shape *Shape, records []T, spec Spec) ([]Object, error) {
	out := make([]Object, 0, len(records))
	for i := range records {
		obj, err := project(ctx, shape, records[i], spec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func project(ctx context.Context, shape *Shape, record any, spec Spec) (Object, error) {
	rec, ok := shape.unwrap(record)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot project %T", ErrShapeMismatch, shape.name, record)
	}

	names := selectFields(shape, spec)
	obj := make(Object, 0, len(names)+len(spec.Include))
	for _, name := range names {
		obj = append(obj, Member{Key: name, Value: shape.field(name).get(rec)})
	}

	included := make(map[string]bool, len(spec.Include))
	for _, inc := range spec.Include {
		if included[inc.Relation] {
			continue
		}
		included[inc.Relation] = true

		rel := shape.relation(inc.Relation)
		v, err := projectRelation(ctx, rel, rec, inc.Spec)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", shape.name, rel.name, err)
		}
		obj = append(obj, Member{Key: rel.name, Value: v})
	}
	return obj, nil
}

// projectRelation resolves a relation through its resolver. An absent
// singular relation becomes null; an absent plural relation becomes [].
func projectRelation(ctx context.Context, rel relation, rec any, spec Spec) (any, error) {
	if rel.plural {
		items, err := rel.many(ctx, rec)
		if err != nil {
			return nil, err
		}
		return projectAll(ctx, rel.target, items, spec)
	}

	related, found, err := rel.one(ctx, rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return project(ctx, rel.target, related, spec)
}

// selectFields returns the base field names for one level: exactly Only
// when set (Except is then ignored), otherwise every field minus Except.
// Repeated names are emitted once.
func selectFields(shape *Shape, spec Spec) []string {
	if spec.Only != nil {
		seen := make(map[string]bool, len(spec.Only))
		names := make([]string, 0, len(spec.Only))
		for _, name := range spec.Only {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return names
	}

	drop := make(map[string]bool, len(spec.Except))
	for _, name := range spec.Except {
		drop[name] = true
	}
	names := make([]string, 0, len(shape.fields))
	for _, f := range shape.fields {
		if !drop[f.name] {
			names = append(names, f.name)
		}
	}
	return names
}
