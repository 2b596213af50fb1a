package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"birdwatch/internal/domain"
	"birdwatch/internal/service"
	"birdwatch/internal/storage"
)

type services struct {
	db        *storage.DB
	emitter   *service.MockEmitter
	birds     *service.BirdService
	locations *service.LocationService
	sightings *service.SightingService
}

func setupServices(t *testing.T) services {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	birdStore := storage.NewBirdStore(db)
	locStore := storage.NewLocationStore(db)
	em := &service.MockEmitter{}
	return services{
		db:        db,
		emitter:   em,
		birds:     service.NewBirdService(birdStore, em),
		locations: service.NewLocationService(locStore, em),
		sightings: service.NewSightingService(storage.NewSightingStore(db), birdStore, locStore, em),
	}
}

func ptr[T any](v T) *T { return &v }

// ── Birds ──────────────────────────────────────────────────

func TestBirdService_CRUD(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	b, err := s.birds.CreateBird(ctx, service.BirdInput{Name: ptr("Grackle"), Species: ptr("Quiscalus mexicanus"), Color: ptr("black")})
	if err != nil {
		t.Fatalf("CreateBird: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("expected an assigned ID")
	}

	got, err := s.birds.UpdateBird(ctx, b.ID, service.BirdInput{Color: ptr("iridescent black")})
	if err != nil {
		t.Fatalf("UpdateBird: %v", err)
	}
	if got.Color != "iridescent black" || got.Name != "Grackle" {
		t.Errorf("partial update lost fields: %+v", got)
	}

	if err := s.birds.DeleteBird(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBird: %v", err)
	}
	if _, err := s.birds.GetBird(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := []string{"bird:created", "bird:updated", "bird:deleted"}
	if got := s.emitter.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestBirdService_NameRequired(t *testing.T) {
	s := setupServices(t)
	_, err := s.birds.CreateBird(context.Background(), service.BirdInput{Species: ptr("x")})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(s.emitter.Events) != 0 {
		t.Errorf("no event expected on failure, got %v", s.emitter.Names())
	}
}

// ── Locations ──────────────────────────────────────────────

func TestLocationService_Validation(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	cases := []service.LocationInput{
		{Longitude: ptr(1.0)},
		{Latitude: ptr(91.0), Longitude: ptr(0.0)},
		{Latitude: ptr(0.0), Longitude: ptr(-181.0)},
	}
	for i, in := range cases {
		if _, err := s.locations.CreateLocation(ctx, in); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	l, err := s.locations.CreateLocation(ctx, service.LocationInput{
		Latitude: ptr(30.26715), Longitude: ptr(-97.74306), Country: ptr("us"),
	})
	if err != nil {
		t.Fatalf("CreateLocation: %v", err)
	}
	if l.Country != "US" {
		t.Errorf("country = %q, want US", l.Country)
	}
}

// ── Sightings ──────────────────────────────────────────────

func TestSightingService_ChecksReferences(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	b, _ := s.birds.CreateBird(ctx, service.BirdInput{Name: ptr("Grackle")})
	l, _ := s.locations.CreateLocation(ctx, service.LocationInput{Latitude: ptr(1.0), Longitude: ptr(2.0)})

	if _, err := s.sightings.CreateSighting(ctx, service.SightingInput{BirdID: ptr(b.ID)}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("missing location: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.sightings.CreateSighting(ctx, service.SightingInput{BirdID: ptr(int64(999)), LocationID: ptr(l.ID)}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("dangling bird: expected ErrInvalidInput, got %v", err)
	}

	sg, err := s.sightings.CreateSighting(ctx, service.SightingInput{BirdID: ptr(b.ID), LocationID: ptr(l.ID)})
	if err != nil {
		t.Fatalf("CreateSighting: %v", err)
	}
	if sg.BirdID != b.ID || sg.LocationID != l.ID {
		t.Errorf("unexpected sighting: %+v", sg)
	}

	if _, err := s.sightings.UpdateSighting(ctx, sg.ID, service.SightingInput{LocationID: ptr(int64(999))}); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("dangling location on update: expected ErrInvalidInput, got %v", err)
	}
	if err := s.sightings.DeleteSighting(ctx, sg.ID); err != nil {
		t.Fatalf("DeleteSighting: %v", err)
	}
	if err := s.sightings.DeleteSighting(ctx, sg.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
