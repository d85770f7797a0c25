// Package logging assembles structured slog loggers and formatting helpers used
// across mediafetch services.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so worker and HTTP code can tag log lines with
// job identifiers and components. The package also provides a no-op logger for
// tests and wiring code that cannot fail, plus a progress sampler that keeps
// per-job download logs readable.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
