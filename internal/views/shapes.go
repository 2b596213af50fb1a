package views

import (
	"context"
	"errors"

	"birdwatch/internal/domain"
	"birdwatch/internal/projection"
)

// Resource names, as used in URLs, view files and error messages.
const (
	Bird     = "bird"
	Location = "location"
	Sighting = "sighting"
)

// Stores are the persistence collaborators relations resolve through.
type Stores struct {
	Birds     domain.BirdStore
	Locations domain.LocationStore
	Sightings domain.SightingStore
}

// Shapes holds the field tables of the three records.
type Shapes struct {
	Bird     *projection.Shape
	Location *projection.Shape
	Sighting *projection.Shape
}

// ByName returns the shape for a resource name.
func (s *Shapes) ByName(resource string) (*projection.Shape, bool) {
	switch resource {
	case Bird:
		return s.Bird, true
	case Location:
		return s.Location, true
	case Sighting:
		return s.Sighting, true
	}
	return nil, false
}

// NewShapes declares the record shapes. Relations:
//
//	sighting.bird      → bird      (one)
//	sighting.location  → location  (one)
//	bird.sightings     → sighting  (many)
//	location.sightings → sighting  (many)
func NewShapes(st Stores) *Shapes {
	bird := projection.NewShape[domain.Bird](Bird)
	location := projection.NewShape[domain.Location](Location)
	sighting := projection.NewShape[domain.Sighting](Sighting)

	bird.
		Field("id", func(b domain.Bird) any { return b.ID }).
		Field("name", func(b domain.Bird) any { return b.Name }).
		Field("species", func(b domain.Bird) any { return b.Species }).
		Field("color", func(b domain.Bird) any { return b.Color }).
		Field("created_at", func(b domain.Bird) any { return b.CreatedAt.UTC() }).
		Field("updated_at", func(b domain.Bird) any { return b.UpdatedAt.UTC() }).
		HasMany("sightings", sighting.Shape(), func(ctx context.Context, b domain.Bird) ([]any, error) {
			list, err := st.Sightings.ListSightingsByBird(ctx, b.ID)
			if err != nil {
				return nil, err
			}
			return projection.Items(list), nil
		})

	location.
		Field("id", func(l domain.Location) any { return l.ID }).
		Field("latitude", func(l domain.Location) any { return l.Latitude }).
		Field("longitude", func(l domain.Location) any { return l.Longitude }).
		Field("country", func(l domain.Location) any { return l.Country }).
		Field("created_at", func(l domain.Location) any { return l.CreatedAt.UTC() }).
		Field("updated_at", func(l domain.Location) any { return l.UpdatedAt.UTC() }).
		HasMany("sightings", sighting.Shape(), func(ctx context.Context, l domain.Location) ([]any, error) {
			list, err := st.Sightings.ListSightingsByLocation(ctx, l.ID)
			if err != nil {
				return nil, err
			}
			return projection.Items(list), nil
		})

	sighting.
		Field("id", func(s domain.Sighting) any { return s.ID }).
		Field("bird_id", func(s domain.Sighting) any { return s.BirdID }).
		Field("location_id", func(s domain.Sighting) any { return s.LocationID }).
		Field("created_at", func(s domain.Sighting) any { return s.CreatedAt.UTC() }).
		Field("updated_at", func(s domain.Sighting) any { return s.UpdatedAt.UTC() }).
		HasOne("bird", bird.Shape(), func(ctx context.Context, s domain.Sighting) (any, bool, error) {
			b, err := st.Birds.GetBird(ctx, s.BirdID)
			return found(b, err)
		}).
		HasOne("location", location.Shape(), func(ctx context.Context, s domain.Sighting) (any, bool, error) {
			l, err := st.Locations.GetLocation(ctx, s.LocationID)
			return found(l, err)
		})

	return &Shapes{Bird: bird.Build(), Location: location.Build(), Sighting: sighting.Build()}
}

// found turns a store lookup into a HasOne result; a missing row is an
// absent relation, not an error.
func found[T any](rec *T, err error) (any, bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return *rec, true, nil
}
