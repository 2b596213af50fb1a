package etl

import (
	"context"
	"fmt"
	"time"
)

// ── Loader ─────────────────────────────────────────────────
// Orchestrates: source.Read → sink.Load, one record at a time.
// A rejected record is counted and reported; it does not stop the run.

// maxReportedErrors caps LoadResult.Errors.
const maxReportedErrors = 20

// Sink receives each record read from a source.
type Sink interface {
	Load(ctx context.Context, rec Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

func (f SinkFunc) Load(ctx context.Context, rec Record) error { return f(ctx, rec) }

// LoadResult is the outcome of one load.
type LoadResult struct {
	Source      string        `json:"source"`
	Status      string        `json:"status"` // "success" | "partial" | "error"
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	RowsFailed  int           `json:"rowsFailed"`
	Errors      []string      `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Run reads every record of source and hands it to sink.
func Run(ctx context.Context, source Source, cfg SourceConfig, sink Sink) (*LoadResult, error) {
	start := time.Now()
	result := &LoadResult{Source: source.Spec().Type}

	recCh, errCh := source.Read(ctx, cfg)
	for rec := range recCh {
		result.RowsRead++
		if err := sink.Load(ctx, rec); err != nil {
			result.RowsFailed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", result.RowsRead, err))
			}
			continue
		}
		result.RowsWritten++
	}
	result.Duration = time.Since(start)

	if err := <-errCh; err != nil {
		result.Status = "error"
		result.Errors = append(result.Errors, fmt.Sprintf("read: %v", err))
		return result, fmt.Errorf("read: %w", err)
	}
	if err := ctx.Err(); err != nil {
		result.Status = "error"
		return result, err
	}

	switch {
	case result.RowsFailed == 0:
		result.Status = "success"
	case result.RowsWritten == 0:
		result.Status = "error"
	default:
		result.Status = "partial"
	}
	return result, nil
}
