// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal job records and workflow diagnostics into
// transport-friendly DTOs that the CLI client and browser page render without
// coupling to internal types.
//
// # Key Types
//
// SubmitRequest/SubmitResponse: the POST /download payloads.
//
// Job: transport representation of a job record with status, progress and
// stream kind.
//
// DaemonStatus: daemon running state, workflow admission counters, per-status
// job counts and dependency checks.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Internal enums
// (jobs.Status, jobs.RequestKind, jobs.StreamKind) are exposed as lowercase
// strings. Timestamps use RFC3339 with milliseconds. Server-side paths are
// never exposed; only the artifact's base filename is.
package api
