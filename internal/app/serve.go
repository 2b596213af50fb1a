package app

import (
	"context"
	"log"

	"birdwatch/internal/api"
)

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	if err := a.WatchViews(ctx); err != nil {
		log.Printf("[APP] views watcher disabled: %v", err)
	}
	if err := a.export.Schedule(ctx); err != nil {
		return err
	}

	srv := api.NewServer(api.Services{
		Birds:     a.birds,
		Locations: a.locations,
		Sightings: a.sightings,
		Export:    a.export,
	}, a.views, api.ServerOptions{
		Addr:            a.cfg.Addr,
		ReadTimeout:     a.cfg.ReadTimeout,
		WriteTimeout:    a.cfg.WriteTimeout,
		ShutdownTimeout: a.cfg.ShutdownTimeout,
	})
	if err := srv.Start(); err != nil {
		a.Shutdown(context.Background())
		return err
	}

	<-ctx.Done()
	log.Println("[APP] shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Stop(shutdownCtx)
	a.Shutdown(shutdownCtx)
	return err
}
