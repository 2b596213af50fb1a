// Package app wires storage, views and services into a running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"birdwatch/internal/config"
	"birdwatch/internal/etl"
	"birdwatch/internal/export"
	"birdwatch/internal/service"
	"birdwatch/internal/storage"
	"birdwatch/internal/views"
)

// App owns every long-lived component of a birdwatch process.
type App struct {
	cfg *config.Config

	db      *storage.DB
	views   *views.Registry
	emitter service.EventEmitter

	birds     *service.BirdService
	locations *service.LocationService
	sightings *service.SightingService
	export    *service.ExportService
	imports   *service.ImportService
}

// New opens the database, seeds it when configured and builds the services.
func New(ctx context.Context, cfg *config.Config, emitter service.EventEmitter) (*App, error) {
	if emitter == nil {
		emitter = service.LogEmitter{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{cfg: cfg, db: db, emitter: emitter}

	if cfg.Seed {
		if _, err := a.Seed(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	birdStore := storage.NewBirdStore(db)
	locStore := storage.NewLocationStore(db)
	sightingStore := storage.NewSightingStore(db)

	shapes := views.NewShapes(views.Stores{Birds: birdStore, Locations: locStore, Sightings: sightingStore})
	a.views, err = views.NewRegistry(shapes, cfg.ViewsFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load views: %w", err)
	}

	a.birds = service.NewBirdService(birdStore, emitter)
	a.locations = service.NewLocationService(locStore, emitter)
	a.sightings = service.NewSightingService(sightingStore, birdStore, locStore, emitter)
	a.export = service.NewExportService(sightingStore, a.views, cfg.Export, export.Open, emitter)
	a.imports = service.NewImportService(a.birds, a.locations, a.sightings)
	return a, nil
}

// Seed loads the sample data into an empty database.
func (a *App) Seed(ctx context.Context) (bool, error) {
	wrote, err := storage.Seed(ctx, a.db)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if wrote {
		log.Printf("[APP] seeded sample data into %s", a.db.Path())
	}
	return wrote, nil
}

// WatchViews reloads the views file on change until ctx is done.
// It is a no-op when no views file is configured.
func (a *App) WatchViews(ctx context.Context) error {
	if a.cfg.ViewsFile == "" {
		return nil
	}
	return a.views.Watch(ctx, a.cfg.ViewsFile)
}

// RunExport performs a single export with the given view.
func (a *App) RunExport(ctx context.Context, view string) (*service.ExportResult, error) {
	if !a.export.Enabled() {
		return nil, errors.New("export is not configured (set BIRDWATCH_EXPORT_DRIVER)")
	}
	return a.export.RunExport(ctx, view)
}

// Import loads a CSV or JSON file into resource.
func (a *App) Import(ctx context.Context, resource, path string) (*etl.LoadResult, error) {
	return a.imports.ImportFile(ctx, resource, path)
}

// Shutdown stops the scheduler, waits for a running export and closes the
// database.
func (a *App) Shutdown(ctx context.Context) {
	a.export.Stop()
	a.export.WaitRunning(ctx)
	if a.db != nil {
		a.db.Close()
	}
}
