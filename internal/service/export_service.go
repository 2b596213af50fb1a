package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"birdwatch/internal/config"
	"birdwatch/internal/domain"
	"birdwatch/internal/export"
	"birdwatch/internal/projection"
	"birdwatch/internal/views"
)

// ─────────────────────────────────────────────────────────────
// Export Service — pushes projected sightings to a destination
// ─────────────────────────────────────────────────────────────

// exportJobID keys the running guard; there is one export job per process.
const exportJobID = "sightings-export"

// Opener creates a destination for one run. export.Open in production.
type Opener func(ctx context.Context, cfg config.Export) (export.Destination, error)

// ExportResult summarizes one export run.
type ExportResult struct {
	RunID       string    `json:"run_id"`
	View        string    `json:"view"`
	Driver      string    `json:"driver"`
	Status      string    `json:"status"`
	RowsRead    int       `json:"rows_read"`
	RowsWritten int       `json:"rows_written"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Error       string    `json:"error,omitempty"`
}

// ExportRunTimeout bounds a single export run.
const ExportRunTimeout = 5 * time.Minute

// ExportService renders every sighting through a named view and writes
// the documents to the configured destination.
type ExportService struct {
	sightings   domain.SightingStore
	registry    *views.Registry
	cfg         config.Export
	open        Opener
	emitter     EventEmitter
	runningJobs runningJobsGuard

	mu        sync.Mutex
	last      *ExportResult
	cronSched *cron.Cron
}

// NewExportService creates an ExportService. A nil open uses export.Open.
func NewExportService(
	sightings domain.SightingStore,
	registry *views.Registry,
	cfg config.Export,
	open Opener,
	emitter EventEmitter,
) *ExportService {
	if open == nil {
		open = export.Open
	}
	return &ExportService{
		sightings: sightings,
		registry:  registry,
		cfg:       cfg,
		open:      open,
		emitter:   emitter,
	}
}

// Enabled reports whether a destination driver is configured.
func (s *ExportService) Enabled() bool { return s.cfg.Driver != "" }

// ── Run ────────────────────────────────────────────────────

// RunExport performs one export synchronously. An empty view uses the
// configured one. Overlapping runs are rejected with ErrAlreadyRunning.
func (s *ExportService) RunExport(ctx context.Context, view string) (*ExportResult, error) {
	if !s.Enabled() {
		return nil, invalid("export is not configured")
	}
	if view == "" {
		view = s.cfg.View
	}
	// Resolve the view before taking the lock so a typo never blocks a run.
	ser, err := views.For[domain.Sighting](s.registry.Catalog(), views.Sighting, view)
	if err != nil {
		return nil, err
	}

	if !s.runningJobs.TryLock(exportJobID) {
		return nil, ErrAlreadyRunning
	}
	defer s.runningJobs.Unlock(exportJobID)

	runCtx, cancel := context.WithTimeout(ctx, ExportRunTimeout)
	defer cancel()

	result := &ExportResult{
		RunID:     uuid.New().String(),
		View:      view,
		Driver:    s.cfg.Driver,
		StartedAt: time.Now().UTC(),
	}
	runErr := s.run(runCtx, result, ser.SerializeAll)

	result.FinishedAt = time.Now().UTC()
	if runErr != nil {
		result.Status = "error"
		result.Error = runErr.Error()
		log.Printf("[EXPORT] run %s failed: %v", result.RunID, runErr)
	} else {
		result.Status = "success"
		log.Printf("[EXPORT] run %s wrote %d/%d sighting(s) to %s", result.RunID, result.RowsWritten, result.RowsRead, result.Driver)
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	s.emitter.Emit(ctx, "export:completed", map[string]string{
		"runId":  result.RunID,
		"status": result.Status,
	})
	return result, runErr
}

func (s *ExportService) run(
	ctx context.Context,
	result *ExportResult,
	render func(context.Context, []domain.Sighting) ([]projection.Object, error),
) error {
	list, err := s.sightings.ListSightings(ctx)
	if err != nil {
		return fmt.Errorf("list sightings: %w", err)
	}
	result.RowsRead = len(list)

	docs, err := render(ctx, list)
	if err != nil {
		return fmt.Errorf("render sightings: %w", err)
	}

	dest, err := s.open(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer dest.Close()

	n, err := dest.Write(ctx, result.RunID, docs)
	result.RowsWritten = n
	return err
}

// LastResult returns the most recent run, or nil if none ran yet.
func (s *ExportService) LastResult() *ExportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// IsRunning reports whether an export is in flight.
func (s *ExportService) IsRunning() bool {
	return s.runningJobs.IsRunning(exportJobID)
}

// ── Schedule ───────────────────────────────────────────────

// Schedule starts the cron trigger when a schedule is configured.
// Scheduled runs that overlap a running export are skipped.
func (s *ExportService) Schedule(ctx context.Context) error {
	if !s.Enabled() || s.cfg.Schedule == "" {
		return nil
	}
	s.Stop()

	c := cron.New()
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		log.Printf("[EXPORT] cron: running export")
		if _, err := s.RunExport(ctx, ""); err != nil {
			log.Printf("[EXPORT] cron: export failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSched = c
	s.mu.Unlock()
	log.Printf("[EXPORT] cron: scheduled %q", s.cfg.Schedule)
	return nil
}

// WaitRunning blocks until a running export finishes or ctx is cancelled.
// Used for graceful shutdown.
func (s *ExportService) WaitRunning(ctx context.Context) {
	s.runningJobs.WaitAll(ctx)
}

// Stop tears down the scheduler.
func (s *ExportService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
