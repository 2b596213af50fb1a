package projection

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Both unknown-name errors are configuration
// defects, not data errors: retrying the same call cannot succeed.
var (
	ErrUnknownField    = errors.New("unknown field")
	ErrUnknownRelation = errors.New("unknown relation")
	ErrShapeMismatch   = errors.New("record does not match shape")
)

// UnknownFieldError reports an only/except entry the shape does not have.
type UnknownFieldError struct {
	Path  string // dotted include path, e.g. "sighting.bird"
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("projection: %s has no field %q", e.Path, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

// UnknownRelationError reports an include entry the shape does not expose.
type UnknownRelationError struct {
	Path     string
	Relation string
}

func (e *UnknownRelationError) Error() string {
	return fmt.Sprintf("projection: %s has no relation %q", e.Path, e.Relation)
}

func (e *UnknownRelationError) Is(target error) bool { return target == ErrUnknownRelation }

// IsConfigError reports whether err comes from a spec that does not fit its shape.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownField) || errors.Is(err, ErrUnknownRelation)
}
