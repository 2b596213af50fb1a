package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Sighting records one bird seen at one location.
type Sighting struct {
	ID         int64     `json:"id"`
	BirdID     int64     `json:"bird_id"`
	LocationID int64     `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SightingStore manages sightings and the lookups relations need.
type SightingStore interface {
	CreateSighting(ctx context.Context, s *Sighting) error
	GetSighting(ctx context.Context, id int64) (*Sighting, error)
	ListSightings(ctx context.Context) ([]Sighting, error)
	ListSightingsByBird(ctx context.Context, birdID int64) ([]Sighting, error)
	ListSightingsByLocation(ctx context.Context, locationID int64) ([]Sighting, error)
	UpdateSighting(ctx context.Context, s *Sighting) error
	DeleteSighting(ctx context.Context, id int64) error
}
