// Package daemon coordinates the long-running mediafetch process.
//
// It wires configuration, the job store, the workflow manager, the delivery
// service and its janitor, Prometheus metrics and the HTTP API into a single
// lifecycle with flock-based locking on the work directory so two daemons
// never share job directories.
//
// Keep orchestration logic here: downloading, progress streaming and artifact
// delivery live in their own packages while the daemon focuses on startup,
// shutdown, and exposing those packages over HTTP.
package daemon
