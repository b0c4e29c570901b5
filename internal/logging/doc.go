// Package logging assembles structured slog loggers and formatting helpers used
// across webstatic.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the bundle, stage and build run they belong to. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every command emits
// records with the same shape.
package logging
