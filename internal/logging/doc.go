// Package logging assembles structured slog loggers and formatting helpers used
// across digitprep.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the field keys (component, run_id, stage, event_type,
// error_hint, impact) that every package uses. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
