package app

import (
	"context"
	"log"

	mcpserver "birdwatch/internal/mcp"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout.
// It returns when stdin closes or ctx is cancelled.
func (a *App) ServeMCP(ctx context.Context) error {
	if err := a.WatchViews(ctx); err != nil {
		log.Printf("[APP] views watcher disabled: %v", err)
	}

	mcpSrv := mcpserver.New(mcpserver.Deps{
		Emitter:   a.emitter,
		Views:     a.views,
		Birds:     a.birds,
		Locations: a.locations,
		Sightings: a.sightings,
		Export:    a.export,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- mcpSrv.ServeStdio() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
