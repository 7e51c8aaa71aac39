// Package logging assembles structured slog loggers and formatting helpers used
// across themereel components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with theme names, batch run IDs, stages, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Loggers are always passed explicitly to the components that use them; there
// is no package-level default logger.
package logging
