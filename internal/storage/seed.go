package storage

import (
	"context"
	"fmt"
	"time"
)

type seedBird struct{ name, species, color string }

type seedLocation struct {
	lat, lng float64
	country  string
}

var (
	seedBirds = []seedBird{
		{"Black-Capped Chickadee", "Poecile Atricapillus", "black"},
		{"Grackle", "Quiscalus Quiscula", "black"},
		{"Common Starling", "Sturnus Vulgaris", "iridescent"},
		{"Mourning Dove", "Zenaida Macroura", "grey"},
	}
	seedLocations = []seedLocation{
		{40.730610, -73.935242, "US"},
		{30.26715, -97.74306, "US"},
		{45.52345, -122.67621, "US"},
		{51.509865, -0.118092, "GB"},
	}
	// bird index, location index
	seedSightings = [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {1, 3}}
)

// Seed inserts the sample birds, locations and sightings. It is a no-op
// when the birds table already has rows. It reports whether it wrote anything.
func Seed(ctx context.Context, db *DB) (bool, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM birds`).Scan(&n); err != nil {
		return false, fmt.Errorf("count birds: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	birdIDs := make([]int64, len(seedBirds))
	for i, b := range seedBirds {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO birds (name, species, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			b.name, b.species, b.color, now, now)
		if err != nil {
			return false, fmt.Errorf("seed bird %s: %w", b.name, err)
		}
		birdIDs[i], _ = res.LastInsertId()
	}

	locationIDs := make([]int64, len(seedLocations))
	for i, l := range seedLocations {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO locations (latitude, longitude, country, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			l.lat, l.lng, l.country, now, now)
		if err != nil {
			return false, fmt.Errorf("seed location %d: %w", i, err)
		}
		locationIDs[i], _ = res.LastInsertId()
	}

	for _, pair := range seedSightings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sightings (bird_id, location_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			birdIDs[pair[0]], locationIDs[pair[1]], now, now); err != nil {
			return false, fmt.Errorf("seed sighting: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
