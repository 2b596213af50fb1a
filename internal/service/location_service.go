package service

import (
	"context"
	"fmt"
	"strings"

	"birdwatch/internal/domain"
)

// LocationService manages locations.
type LocationService struct {
	store   domain.LocationStore
	emitter EventEmitter
}

func NewLocationService(store domain.LocationStore, emitter EventEmitter) *LocationService {
	return &LocationService{store: store, emitter: emitter}
}

// LocationInput carries the writable location fields.
type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Country   *string  `json:"country"`
}

func (s *LocationService) CreateLocation(ctx context.Context, in LocationInput) (*domain.Location, error) {
	if in.Latitude == nil || in.Longitude == nil {
		return nil, invalid("latitude and longitude are required")
	}
	l := &domain.Location{}
	applyLocation(l, in)
	if err := validateLocation(l); err != nil {
		return nil, err
	}
	if err := s.store.CreateLocation(ctx, l); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	s.emitter.Emit(ctx, "location:created", map[string]int64{"id": l.ID})
	return l, nil
}

func (s *LocationService) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	return s.store.GetLocation(ctx, id)
}

func (s *LocationService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.store.ListLocations(ctx)
}

func (s *LocationService) UpdateLocation(ctx context.Context, id int64, in LocationInput) (*domain.Location, error) {
	l, err := s.store.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	applyLocation(l, in)
	if err := validateLocation(l); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLocation(ctx, l); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, "location:updated", map[string]int64{"id": id})
	return l, nil
}

func (s *LocationService) DeleteLocation(ctx context.Context, id int64) error {
	if err := s.store.DeleteLocation(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, "location:deleted", map[string]int64{"id": id})
	return nil
}

func applyLocation(l *domain.Location, in LocationInput) {
	if in.Latitude != nil {
		l.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		l.Longitude = *in.Longitude
	}
	if in.Country != nil {
		l.Country = strings.ToUpper(strings.TrimSpace(*in.Country))
	}
}

func validateLocation(l *domain.Location) error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return invalid("latitude %v out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return invalid("longitude %v out of range", l.Longitude)
	}
	return nil
}
