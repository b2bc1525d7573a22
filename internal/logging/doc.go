// Package logging assembles structured slog loggers and formatting helpers used
// across quill.
//
// It owns the console/JSON handlers, centralizes level and output plumbing
// (file outputs rotate through lumberjack), and exposes context-aware helpers
// so pipeline code tags log lines with content ids, stages, and correlation
// IDs automatically. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
