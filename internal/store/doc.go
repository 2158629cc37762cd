// Package store persists the CineBoard session in SQLite.
//
// The layout mirrors the orchestrator's single-writer model: one session row,
// one row per storyboard and one row per scene keyed by (storyboard_id, idx),
// so a scene update touches exactly one row. AcquireLock guards the data
// directory with a file lock so only one process writes at a time.
//
// The schema is versioned without migrations. A version mismatch surfaces
// ErrSchemaMismatch and the database must be deleted.
package store
