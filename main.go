package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"birdwatch/internal/app"
	"birdwatch/internal/config"
)

const usage = `usage: birdwatch [command] [flags]

commands:
  serve    run the HTTP API (default)
  mcp      run the MCP server on stdin/stdout
  seed     load the sample birds, locations and sightings
  export   export every sighting once and print the result
  import   load a CSV or JSON file (-resource, -file)

Settings come from BIRDWATCH_* environment variables.
`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage); fs.PrintDefaults() }
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database")
	fs.StringVar(&cfg.ViewsFile, "views", cfg.ViewsFile, "JSON file with extra named views")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "seed sample data on startup")
	view := fs.String("view", "", "sighting view to export (export only)")
	resource := fs.String("resource", "", "bird, location or sighting (import only)")
	file := fs.String("file", "", "CSV or JSON file to load (import only)")
	fs.Parse(args)

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cmd == "mcp" {
		// stdout carries the protocol
		log.SetOutput(os.Stderr)
	}

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	switch cmd {
	case "serve":
		err = a.Serve(ctx)
	case "mcp":
		err = a.ServeMCP(ctx)
		a.Shutdown(context.Background())
	case "seed":
		var wrote bool
		wrote, err = a.Seed(ctx)
		if err == nil && !wrote {
			fmt.Println("Database already has data; nothing seeded.")
		}
		a.Shutdown(ctx)
	case "export":
		err = runExport(ctx, a, *view)
		a.Shutdown(context.Background())
	case "import":
		err = runImport(ctx, a, *resource, *file)
		a.Shutdown(ctx)
	default:
		a.Shutdown(ctx)
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runExport(ctx context.Context, a *app.App, view string) error {
	result, err := a.RunExport(ctx, view)
	if result != nil {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	}
	return err
}

func runImport(ctx context.Context, a *app.App, resource, file string) error {
	if resource == "" || file == "" {
		return fmt.Errorf("-resource and -file are required")
	}
	result, err := a.Import(ctx, resource, file)
	if result != nil {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	}
	return err
}
