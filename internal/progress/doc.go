// Package progress turns job store observations into an ordered stream of
// snapshots for one job.
//
// The Streamer polls the store at a fixed interval, emits a snapshot whenever
// the observed record differs from the last one emitted, and stops right after
// emitting a terminal snapshot. It never waits on a worker, so a slow or stuck
// fetch only delays the next change, never the poll loop. Unknown ids produce a
// single "unknown" snapshot.
package progress
