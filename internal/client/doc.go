// Package client talks to a running mediafetch daemon over its HTTP API.
//
// It backs the CLI's submit, watch, fetch, jobs, cancel and status commands.
// Submissions rejected by admission control are retried with backoff,
// honoring the daemon's Retry-After hint. Progress streams are read as
// server-sent events with no overall timeout.
package client
