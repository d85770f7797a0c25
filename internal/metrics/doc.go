// Package metrics exposes daemon counters and histograms in the Prometheus
// exposition format.
//
// A Recorder owns its own registry so tests and multiple daemons in one
// process never collide on the global default registerer. It implements the
// observer hooks of both the workflow manager and the delivery service.
package metrics
