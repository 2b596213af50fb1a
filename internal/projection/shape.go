package projection

import (
	"context"
	"fmt"
)

// ── Shape ──────────────────────────────────────────────────
// A Shape is the statically declared field table of one record type:
// ordered own scalar fields (name → accessor) and named relations
// (name → related shape + resolver). Shapes are declared once at startup
// and are read-only afterwards; the projector never reflects over records.

// Shape describes the projectable surface of one record type.
type Shape struct {
	name      string
	unwrap    func(any) (any, bool)
	fields    []field
	relations []relation
	index     map[string]int // field name → position in fields
	relIndex  map[string]int // relation name → position in relations
}

type field struct {
	name string
	get  func(any) any
}

type relation struct {
	name   string
	plural bool
	target *Shape
	one    func(context.Context, any) (any, bool, error)
	many   func(context.Context, any) ([]any, error)
}

// Name returns the shape name used in error messages.
func (s *Shape) Name() string { return s.name }

// FieldNames returns the own scalar field names in declaration order.
func (s *Shape) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// RelationNames returns the relation names in declaration order.
func (s *Shape) RelationNames() []string {
	names := make([]string, len(s.relations))
	for i, r := range s.relations {
		names[i] = r.name
	}
	return names
}

// HasField reports whether name is an own scalar field of the shape.
func (s *Shape) HasField(name string) bool {
	_, ok := s.index[name]
	return ok
}

// HasRelation reports whether name is a relation of the shape.
func (s *Shape) HasRelation(name string) bool {
	_, ok := s.relIndex[name]
	return ok
}

// Relation returns the target shape of a relation and whether it is plural.
func (s *Shape) Relation(name string) (target *Shape, plural bool, ok bool) {
	i, ok := s.relIndex[name]
	if !ok {
		return nil, false, false
	}
	r := s.relations[i]
	return r.target, r.plural, true
}

func (s *Shape) field(name string) field {
	return s.fields[s.index[name]]
}

func (s *Shape) relation(name string) relation {
	return s.relations[s.relIndex[name]]
}

// ── Builder ────────────────────────────────────────────────

// Builder declares a Shape for records of type T. Records may be passed to
// the projector either as T or *T.
type Builder[T any] struct {
	shape *Shape
}

// NewShape starts declaring a shape named name for records of type T.
func NewShape[T any](name string) *Builder[T] {
	return &Builder[T]{shape: &Shape{
		name:     name,
		unwrap:   unwrapAs[T],
		index:    make(map[string]int),
		relIndex: make(map[string]int),
	}}
}

func unwrapAs[T any](v any) (any, bool) {
	switch r := v.(type) {
	case T:
		return r, true
	case *T:
		if r != nil {
			return *r, true
		}
	}
	return nil, false
}

// Shape returns the shape under construction. The pointer is stable, so it
// can be handed to another builder before this one is finished, which is how
// mutually related shapes (bird ↔ sighting) reference each other.
func (b *Builder[T]) Shape() *Shape { return b.shape }

// Field declares an own scalar field.
func (b *Builder[T]) Field(name string, get func(T) any) *Builder[T] {
	b.claim(name)
	b.shape.index[name] = len(b.shape.fields)
	b.shape.fields = append(b.shape.fields, field{
		name: name,
		get:  func(rec any) any { return get(rec.(T)) },
	})
	return b
}

// HasOne declares a singular relation. The resolver reports found=false
// when the record has no related record.
func (b *Builder[T]) HasOne(name string, target *Shape, resolve func(context.Context, T) (any, bool, error)) *Builder[T] {
	b.claim(name)
	b.shape.relIndex[name] = len(b.shape.relations)
	b.shape.relations = append(b.shape.relations, relation{
		name:   name,
		target: target,
		one: func(ctx context.Context, rec any) (any, bool, error) {
			return resolve(ctx, rec.(T))
		},
	})
	return b
}

// HasMany declares a plural relation. Use Items to adapt a typed slice.
func (b *Builder[T]) HasMany(name string, target *Shape, resolve func(context.Context, T) ([]any, error)) *Builder[T] {
	b.claim(name)
	b.shape.relIndex[name] = len(b.shape.relations)
	b.shape.relations = append(b.shape.relations, relation{
		name:   name,
		plural: true,
		target: target,
		many: func(ctx context.Context, rec any) ([]any, error) {
			return resolve(ctx, rec.(T))
		},
	})
	return b
}

// Build returns the finished shape.
func (b *Builder[T]) Build() *Shape { return b.shape }

// claim panics on a name declared twice; shapes are static declarations,
// so this is a programming error caught at startup.
func (b *Builder[T]) claim(name string) {
	if b.shape.HasField(name) || b.shape.HasRelation(name) {
		panic(fmt.Sprintf("projection: shape %q declares %q twice", b.shape.name, name))
	}
}

// Items converts a typed slice into the []any a HasMany resolver returns.
func Items[R any](records []R) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
