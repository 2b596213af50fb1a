package domain

import (
	"context"
	"time"
)

// Bird is a species entry observers can report sightings of.
type Bird struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BirdStore interface {
	CreateBird(ctx context.Context, b *Bird) error
	GetBird(ctx context.Context, id int64) (*Bird, error)
	ListBirds(ctx context.Context) ([]Bird, error)
	UpdateBird(ctx context.Context, b *Bird) error
	DeleteBird(ctx context.Context, id int64) error
}
