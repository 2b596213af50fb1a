package service

import (
	"context"
	"errors"
	"fmt"

	"birdwatch/internal/domain"
)

// SightingService records sightings, checking that both ends of the
// bird and location relations exist.
type SightingService struct {
	store     domain.SightingStore
	birds     domain.BirdStore
	locations domain.LocationStore
	emitter   EventEmitter
}

func NewSightingService(store domain.SightingStore, birds domain.BirdStore, locations domain.LocationStore, emitter EventEmitter) *SightingService {
	return &SightingService{store: store, birds: birds, locations: locations, emitter: emitter}
}

// SightingInput carries the writable sighting fields.
type SightingInput struct {
	BirdID     *int64 `json:"bird_id"`
	LocationID *int64 `json:"location_id"`
}

func (s *SightingService) CreateSighting(ctx context.Context, in SightingInput) (*domain.Sighting, error) {
	if in.BirdID == nil || in.LocationID == nil {
		return nil, invalid("bird_id and location_id are required")
	}
	sg := &domain.Sighting{BirdID: *in.BirdID, LocationID: *in.LocationID}
	if err := s.checkRefs(ctx, sg); err != nil {
		return nil, err
	}
	if err := s.store.CreateSighting(ctx, sg); err != nil {
		return nil, fmt.Errorf("create sighting: %w", err)
	}
	s.emitter.Emit(ctx, "sighting:created", map[string]int64{"id": sg.ID, "bird_id": sg.BirdID})
	return sg, nil
}

func (s *SightingService) GetSighting(ctx context.Context, id int64) (*domain.Sighting, error) {
	return s.store.GetSighting(ctx, id)
}

func (s *SightingService) ListSightings(ctx context.Context) ([]domain.Sighting, error) {
	return s.store.ListSightings(ctx)
}

func (s *SightingService) UpdateSighting(ctx context.Context, id int64, in SightingInput) (*domain.Sighting, error) {
	sg, err := s.store.GetSighting(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.BirdID != nil {
		sg.BirdID = *in.BirdID
	}
	if in.LocationID != nil {
		sg.LocationID = *in.LocationID
	}
	if err := s.checkRefs(ctx, sg); err != nil {
		return nil, err
	}
	if err := s.store.UpdateSighting(ctx, sg); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "sighting:updated", map[string]int64{"id": id})
	return sg, nil
}

func (s *SightingService) DeleteSighting(ctx context.Context, id int64) error {
	if err := s.store.DeleteSighting(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "sighting:deleted", map[string]int64{"id": id})
	return nil
}

// checkRefs turns a dangling reference into ErrInvalidInput instead of
// a foreign key failure from the database.
func (s *SightingService) checkRefs(ctx context.Context, sg *domain.Sighting) error {
	if _, err := s.birds.GetBird(ctx, sg.BirdID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid("bird %d does not exist", sg.BirdID)
		}
		return err
	}
	if _, err := s.locations.GetLocation(ctx, sg.LocationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid("location %d does not exist", sg.LocationID)
		}
		return err
	}
	return nil
}
