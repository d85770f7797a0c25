// Package services defines shared utilities consumed by the fetch workflow and
// its external integrations.
//
// Structured error markers plus the Wrap helper tag failures so the worker can
// log a consistent error_hint and record a readable error detail. Integrations
// with external tools live in subpackages (see services/ytdlp).
package services
