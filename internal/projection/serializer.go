package projection

import (
	"context"
	"encoding/json"
)

// Serializer binds a Shape and a Spec for records of type T. It replaces
// ad-hoc shaping in handlers: construct one per use case, then call
// Serialize or SerializeAll for each response.
type Serializer[T any] struct {
	shape *Shape
	spec  Spec
}

// NewSerializer validates spec against shape once, up front.
func NewSerializer[T any](shape *Shape, spec Spec) (*Serializer[T], error) {
	if err := Validate(shape, spec); err != nil {
		return nil, err
	}
	return &Serializer[T]{shape: shape, spec: spec}, nil
}

// Spec returns the projection the serializer applies.
func (s *Serializer[T]) Spec() Spec { return s.spec }

// Serialize renders a single record.
func (s *Serializer[T]) Serialize(ctx context.Context, record T) (Object, error) {
	return project(ctx, s.shape, record, s.spec)
}

// SerializeAll renders a collection, preserving order.
func (s *Serializer[T]) SerializeAll(ctx context.Context, records []T) ([]Object, error) {
	return projectAll(ctx, s.shape, records, s.spec)
}

// MarshalOne is Serialize followed by json.Marshal.
func (s *Serializer[T]) MarshalOne(ctx context.Context, record T) ([]byte, error) {
	obj, err := s.Serialize(ctx, record)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// MarshalAll is SerializeAll followed by json.Marshal.
func (s *Serializer[T]) MarshalAll(ctx context.Context, records []T) ([]byte, error) {
	objs, err := s.SerializeAll(ctx, records)
	if err != nil {
		return nil, err
	}
	return json.Marshal(objs)
}
