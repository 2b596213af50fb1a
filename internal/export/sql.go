package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"birdwatch/internal/projection"
)

// sqlDestination is the shared implementation for SQLite, MySQL and Postgres.
// Documents are stored as JSON text, one row per projected sighting.
type sqlDestination struct {
	driverName string
	db         *sql.DB
	table      string
}

func newSQLDestination(ctx context.Context, driverName, dsn, table string) (*sqlDestination, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("export: invalid table name %q", table)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	d := &sqlDestination{driverName: driverName, db: db, table: table}
	if err := d.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// ensureTable uses only types all three dialects accept.
func (d *sqlDestination) ensureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+d.table+` (
		run_id VARCHAR(36) NOT NULL,
		position INTEGER NOT NULL,
		document TEXT NOT NULL,
		exported_at TIMESTAMP NOT NULL,
		PRIMARY KEY (run_id, position)
	)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", d.table, err)
	}
	return nil
}

func (d *sqlDestination) Write(ctx context.Context, runID string, docs []projection.Object) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, d.insertSQL())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("encode document %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, string(data), now); err != nil {
			return 0, fmt.Errorf("insert document %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(docs), nil
}

func (d *sqlDestination) insertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (run_id, position, document, exported_at) VALUES (%s)`,
		d.table, placeholders(d.driverName, 4))
}

// placeholders renders n bind parameters in the driver's dialect.
func placeholders(driverName string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		if driverName == "postgres" {
			parts[i] = "$" + strconv.Itoa(i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

func (d *sqlDestination) Close() error {
	return d.db.Close()
}
