package views

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Registry holds the live catalog. Reloads swap the whole catalog
// atomically, so a request always sees one consistent version.
type Registry struct {
	shapes  *Shapes
	current atomic.Pointer[Catalog]
}

// NewRegistry starts with the compiled-in defaults, then overlays path
// when it is non-empty.
func NewRegistry(shapes *Shapes, path string) (*Registry, error) {
	r := &Registry{shapes: shapes}
	cat, err := NewCatalog(shapes, Defaults())
	if err != nil {
		return nil, err
	}
	r.current.Store(cat)
	if path != "" {
		if err := r.Reload(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Catalog returns the current catalog snapshot.
func (r *Registry) Catalog() *Catalog {
	return r.current.Load()
}

// Reload reads path, validates it over the defaults and swaps it in.
// On error the previous catalog stays active.
func (r *Registry) Reload(path string) error {
	set, err := ReadFile(path)
	if err != nil {
		return err
	}
	cat, err := NewCatalog(r.shapes, Defaults().Merge(set))
	if err != nil {
		return err
	}
	r.current.Store(cat)
	return nil
}

// Watch reloads path whenever it is written or recreated, until ctx is
// done. Editors often write through a temp file and rename, so the parent
// directory is watched rather than the file itself.
func (r *Registry) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("views watcher: bad path %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("views watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("views watcher: watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if name, _ := filepath.Abs(event.Name); name != absPath {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(250*time.Millisecond, func() {
					if err := r.Reload(absPath); err != nil {
						log.Printf("[VIEWS] reload %s failed, keeping previous views: %v", absPath, err)
						return
					}
					log.Printf("[VIEWS] reloaded %s", absPath)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[VIEWS] watcher error: %v", err)
			}
		}
	}()

	log.Printf("[VIEWS] watching %s", absPath)
	return nil
}
