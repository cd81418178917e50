// Package store provides durable storage for completed runs.
//
// Each session is written as one run row plus its trials, instruction
// marks, and scanner pulses. Aborted runs are persisted too, flagged, so
// that partial behavioral data from an interrupted scan is never lost.
//
// The backing store is SQLite with WAL mode; CSV export for analysis
// pipelines lives in export.go.
package store
