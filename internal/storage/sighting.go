package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birdwatch/internal/domain"
)

// SightingStore implements domain.SightingStore using SQLite.
type SightingStore struct {
	db *DB
}

func NewSightingStore(db *DB) *SightingStore {
	return &SightingStore{db: db}
}

const sightingColumns = `id, bird_id, location_id, created_at, updated_at`

func (s *SightingStore) CreateSighting(ctx context.Context, sg *domain.Sighting) error {
	now := time.Now().UTC()
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = now
	}
	sg.UpdatedAt = now
	res, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO sightings (bird_id, location_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sg.BirdID, sg.LocationID, sg.CreatedAt, sg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sighting: %w", err)
	}
	sg.ID, err = res.LastInsertId()
	return err
}

func (s *SightingStore) GetSighting(ctx context.Context, id int64) (*domain.Sighting, error) {
	sg := &domain.Sighting{}
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+sightingColumns+` FROM sightings WHERE id = ?`, id,
	).Scan(&sg.ID, &sg.BirdID, &sg.LocationID, &sg.CreatedAt, &sg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sighting %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sighting: %w", err)
	}
	return sg, nil
}

func (s *SightingStore) ListSightings(ctx context.Context) ([]domain.Sighting, error) {
	return s.list(ctx, `SELECT `+sightingColumns+` FROM sightings ORDER BY id ASC`)
}

func (s *SightingStore) ListSightingsByBird(ctx context.Context, birdID int64) ([]domain.Sighting, error) {
	return s.list(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE bird_id = ? ORDER BY id ASC`, birdID)
}

func (s *SightingStore) ListSightingsByLocation(ctx context.Context, locationID int64) ([]domain.Sighting, error) {
	return s.list(ctx, `SELECT `+sightingColumns+` FROM sightings WHERE location_id = ? ORDER BY id ASC`, locationID)
}

func (s *SightingStore) list(ctx context.Context, query string, args ...any) ([]domain.Sighting, error) {
	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sightings := []domain.Sighting{}
	for rows.Next() {
		var sg domain.Sighting
		if err := rows.Scan(&sg.ID, &sg.BirdID, &sg.LocationID, &sg.CreatedAt, &sg.UpdatedAt); err != nil {
			return nil, err
		}
		sightings = append(sightings, sg)
	}
	return sightings, rows.Err()
}

func (s *SightingStore) UpdateSighting(ctx context.Context, sg *domain.Sighting) error {
	sg.UpdatedAt = time.Now().UTC()
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE sightings SET bird_id = ?, location_id = ?, updated_at = ? WHERE id = ?`,
		sg.BirdID, sg.LocationID, sg.UpdatedAt, sg.ID,
	)
	return affectedOne(res, err, "sighting", sg.ID)
}

func (s *SightingStore) DeleteSighting(ctx context.Context, id int64) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM sightings WHERE id = ?`, id)
	return affectedOne(res, err, "sighting", id)
}
