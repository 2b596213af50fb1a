// Package api serves birds, locations and sightings over HTTP. Every
// response body is rendered through a named view.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"birdwatch/internal/domain"
	"birdwatch/internal/service"
	"birdwatch/internal/views"
)

// DefaultAddress is used when ServerOptions.Addr is empty.
const DefaultAddress = "127.0.0.1:8080"

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	Logger            *log.Logger
}

// Services groups the business logic the handlers call into.
// Export may be nil when exporting is not configured.
type Services struct {
	Birds     *service.BirdService
	Locations *service.LocationService
	Sightings *service.SightingService
	Export    *service.ExportService
}

// Server hosts the HTTP API.
type Server struct {
	http    *http.Server
	svc     Services
	views   *views.Registry
	logger  *log.Logger
	opts    ServerOptions
	handler http.Handler
	ln      net.Listener
}

// NewServer wires the routes. It does not listen until Start is called.
func NewServer(svc Services, registry *views.Registry, opts ServerOptions) *Server {
	if registry == nil {
		panic("api.NewServer: registry is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{svc: svc, views: registry, logger: opts.Logger, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /views", s.handleViews)

	route(mux, "/birds", s, resource[domain.Bird, service.BirdInput]{
		name:   views.Bird,
		list:   svc.Birds.ListBirds,
		get:    svc.Birds.GetBird,
		create: svc.Birds.CreateBird,
		update: svc.Birds.UpdateBird,
		remove: svc.Birds.DeleteBird,
	})
	route(mux, "/locations", s, resource[domain.Location, service.LocationInput]{
		name:   views.Location,
		list:   svc.Locations.ListLocations,
		get:    svc.Locations.GetLocation,
		create: svc.Locations.CreateLocation,
		update: svc.Locations.UpdateLocation,
		remove: svc.Locations.DeleteLocation,
	})
	route(mux, "/sightings", s, resource[domain.Sighting, service.SightingInput]{
		name:   views.Sighting,
		list:   svc.Sightings.ListSightings,
		get:    svc.Sightings.GetSighting,
		create: svc.Sightings.CreateSighting,
		update: svc.Sightings.UpdateSighting,
		remove: svc.Sightings.DeleteSighting,
	})

	mux.HandleFunc("POST /exports", s.handleRunExport)
	mux.HandleFunc("GET /exports/last", s.handleLastExport)

	s.handler = withRequestID(withAccessLog(mux, opts.Logger))
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		ErrorLog:          opts.Logger,
		BaseContext: func(net.Listener) context.Context {
			return context.Background()
		},
	}
	return s
}

// Handler exposes the routed handler, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listen address and serves HTTP in a background
// goroutine. A bind failure is returned to the caller; use Stop for
// graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	s.ln = ln
	s.logger.Printf("[API] listening on %s", ln.Addr())
	go func() {
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("[API] Serve error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded, or the
// configured one before that.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.http.Addr
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if timeout := s.opts.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   timeNow().UTC().Format(time.RFC3339),
	})
}

// handleViews lists the view names available per resource.
func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.views.Catalog().Names())
}

// ── Export ─────────────────────────────────────────────────

func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	if s.svc.Export == nil || !s.svc.Export.Enabled() {
		writeError(w, http.StatusNotFound, "export is not configured")
		return
	}
	// A run may take longer than WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(service.ExportRunTimeout + 30*time.Second)); err != nil {
		s.logger.Printf("[API] export: cannot extend write deadline: %v", err)
	}
	result, err := s.svc.Export.RunExport(r.Context(), r.URL.Query().Get("view"))
	if err != nil && result == nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func (s *Server) handleLastExport(w http.ResponseWriter, r *http.Request) {
	if s.svc.Export == nil {
		writeError(w, http.StatusNotFound, "export is not configured")
		return
	}
	last := s.svc.Export.LastResult()
	if last == nil {
		writeError(w, http.StatusNotFound, "no export has run yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}
