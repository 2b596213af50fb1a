package service

import (
	"context"
	"fmt"
	"strings"

	"birdwatch/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Bird Service — CRUD for birds
// ─────────────────────────────────────────────────────────────

// BirdService manages the bird catalogue.
type BirdService struct {
	store   domain.BirdStore
	emitter EventEmitter
}

// NewBirdService creates a BirdService.
func NewBirdService(store domain.BirdStore, emitter EventEmitter) *BirdService {
	return &BirdService{store: store, emitter: emitter}
}

// BirdInput carries the writable bird fields. Nil fields are left
// unchanged on update.
type BirdInput struct {
	Name    *string `json:"name"`
	Species *string `json:"species"`
	Color   *string `json:"color"`
}

// CreateBird adds a bird. Name is required.
func (s *BirdService) CreateBird(ctx context.Context, in BirdInput) (*domain.Bird, error) {
	b := &domain.Bird{}
	applyBird(b, in)
	if b.Name == "" {
		return nil, invalid("bird name is required")
	}
	if err := s.store.CreateBird(ctx, b); err != nil {
		return nil, fmt.Errorf("create bird: %w", err)
	}
	s.emitter.Emit(ctx, "bird:created", map[string]int64{"id": b.ID})
	return b, nil
}

// GetBird returns a bird by ID.
func (s *BirdService) GetBird(ctx context.Context, id int64) (*domain.Bird, error) {
	return s.store.GetBird(ctx, id)
}

// ListBirds returns every bird ordered by ID.
func (s *BirdService) ListBirds(ctx context.Context) ([]domain.Bird, error) {
	return s.store.ListBirds(ctx)
}

// UpdateBird applies the non-nil fields of in.
func (s *BirdService) UpdateBird(ctx context.Context, id int64, in BirdInput) (*domain.Bird, error) {
	b, err := s.store.GetBird(ctx, id)
	if err != nil {
		return nil, err
	}
	applyBird(b, in)
	if b.Name == "" {
		return nil, invalid("bird name cannot be empty")
	}
	if err := s.store.UpdateBird(ctx, b); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "bird:updated", map[string]int64{"id": id})
	return b, nil
}

// DeleteBird removes a bird and, through the schema, its sightings.
func (s *BirdService) DeleteBird(ctx context.Context, id int64) error {
	if err := s.store.DeleteBird(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "bird:deleted", map[string]int64{"id": id})
	return nil
}

func applyBird(b *domain.Bird, in BirdInput) {
	if in.Name != nil {
		b.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		b.Species = strings.TrimSpace(*in.Species)
	}
	if in.Color != nil {
		b.Color = strings.TrimSpace(*in.Color)
	}
}
