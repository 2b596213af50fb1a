package etl

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// All sources emit Records; the loader maps them onto service inputs.

// Record is a single row of data flowing through the pipeline.
type Record struct {
	Data map[string]any `json:"data"`
}
