// Package logging assembles the structured slog loggers used by audioconv.
//
// It owns the console and JSON handlers, resolves levels and output
// destinations from configuration, and exposes context-aware helpers so
// pipeline code automatically tags log lines with run, job, and stage
// identifiers. Console output goes to stderr so stdout stays free for the
// run summary. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
