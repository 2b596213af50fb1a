package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birdwatch/internal/domain"
)

// BirdStore implements domain.BirdStore using SQLite.
type BirdStore struct {
	db *DB
}

func NewBirdStore(db *DB) *BirdStore {
	return &BirdStore{db: db}
}

const birdColumns = `id, name, species, color, created_at, updated_at`

func scanBird(row interface{ Scan(...any) error }, b *domain.Bird) error {
	return row.Scan(&b.ID, &b.Name, &b.Species, &b.Color, &b.CreatedAt, &b.UpdatedAt)
}

func (s *BirdStore) CreateBird(ctx context.Context, b *domain.Bird) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	res, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO birds (name, species, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		b.Name, b.Species, b.Color, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bird: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (s *BirdStore) GetBird(ctx context.Context, id int64) (*domain.Bird, error) {
	b := &domain.Bird{}
	err := scanBird(s.db.Conn().QueryRowContext(ctx, `SELECT `+birdColumns+` FROM birds WHERE id = ?`, id), b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bird %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bird: %w", err)
	}
	return b, nil
}

func (s *BirdStore) ListBirds(ctx context.Context) ([]domain.Bird, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `SELECT `+birdColumns+` FROM birds ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	birds := []domain.Bird{}
	for rows.Next() {
		var b domain.Bird
		if err := scanBird(rows, &b); err != nil {
			return nil, err
		}
		birds = append(birds, b)
	}
	return birds, rows.Err()
}

func (s *BirdStore) UpdateBird(ctx context.Context, b *domain.Bird) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := s.db.Conn().ExecContext(ctx,
		`UPDATE birds SET name = ?, species = ?, color = ?, updated_at = ? WHERE id = ?`,
		b.Name, b.Species, b.Color, b.UpdatedAt, b.ID,
	)
	return affectedOne(res, err, "bird", b.ID)
}

func (s *BirdStore) DeleteBird(ctx context.Context, id int64) error {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM birds WHERE id = ?`, id)
	return affectedOne(res, err, "bird", id)
}

// affectedOne maps "no row touched" to domain.ErrNotFound.
func affectedOne(res sql.Result, err error, kind string, id int64) error {
	if err != nil {
		return fmt.Errorf("%s %d: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
