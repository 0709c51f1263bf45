// Package logging assembles structured slog loggers and formatting helpers used
// across readlist.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that keep warnings uniform: every WARN carries
// an event_type, an error_hint, and an impact so a refresh report and the log
// file tell the same story. The console handler lifts the component and
// content_id attributes into a line prefix. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
