// Package config loads, normalizes, and validates mediafetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, overlays optional .env files, and honours
// environment overrides such as MEDIAFETCH_API_BIND. The Config type centralizes
// every knob the daemon and CLI need so the work directory, job store backend,
// admission limits, and retention windows are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
