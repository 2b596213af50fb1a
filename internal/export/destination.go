package export

import (
	"context"
	"fmt"
	"regexp"

	"birdwatch/internal/config"
	"birdwatch/internal/projection"
)

// ── Destination ────────────────────────────────────────────
// A Destination receives one export run: every sighting rendered through
// the configured view, in order. Each run is tagged with its run ID so
// successive exports can coexist in the target.

// Destination writes projected documents into a target system.
type Destination interface {
	Write(ctx context.Context, runID string, docs []projection.Object) (int, error)
	Close() error
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open creates the Destination for cfg.Driver.
func Open(ctx context.Context, cfg config.Export) (Destination, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return newSQLDestination(ctx, "sqlite", buildSQLiteDSN(cfg), cfg.Table)
	case DriverMySQL:
		return newSQLDestination(ctx, "mysql", buildMySQLDSN(cfg), cfg.Table)
	case DriverPostgres:
		return newSQLDestination(ctx, "postgres", buildPostgresDSN(cfg), cfg.Table)
	case DriverMongoDB:
		return newMongoDestination(ctx, cfg)
	case "":
		return nil, fmt.Errorf("export: no driver configured")
	default:
		return nil, fmt.Errorf("export: unsupported driver: %s", cfg.Driver)
	}
}
