package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birdwatch/internal/domain"
)

// LocationStore implements domain.LocationStore using SQLite.
type LocationStore struct {
	db *DB
}

func NewLocationStore(db *DB) *LocationStore {
	return &LocationStore{db: db}
}

const locationColumns = `id, latitude, longitude, country, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }, l *domain.Location) error {
	return row.Scan(&l.ID, &l.Latitude, &l.Longitude, &l.Country, &l.CreatedAt, &l.UpdatedAt)
}

func (s *LocationStore) CreateLocation(ctx context.Context, l *domain.Location) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	res, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO locations (latitude, longitude, country, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		l.Latitude, l.Longitude, l.Country, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (s *LocationStore) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	l := &domain.Location{}
	err := scanLocation(s.db.Conn().QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id), l)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		var l domain.Location
		if err := scanLocation(rows, &l); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *LocationStore) UpdateLocation(ctx context.Context, l *domain.Location) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE locations SET latitude = ?, longitude = ?, country = ?, updated_at = ? WHERE id = ?`,
		l.Latitude, l.Longitude, l.Country, l.UpdatedAt, l.ID,
	)
	return affectedOne(res, err, "location", l.ID)
}

func (s *LocationStore) DeleteLocation(ctx context.Context, id int64) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	return affectedOne(res, err, "location", id)
}
