package domain

import (
	"context"
	"time"
)

// Location is a geographic point where sightings happen.
type Location struct {
	ID        int64     `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Country   string    `json:"country"` // ISO 3166-1 alpha-2
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LocationStore interface {
	CreateLocation(ctx context.Context, l *Location) error
	GetLocation(ctx context.Context, id int64) (*Location, error)
	ListLocations(ctx context.Context) ([]Location, error)
	UpdateLocation(ctx context.Context, l *Location) error
	DeleteLocation(ctx context.Context, id int64) error
}
