package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediafetch/internal/jobs"
)

const namespace = "mediafetch"

// Recorder collects job and delivery metrics.
type Recorder struct {
	registry *prometheus.Registry

	submitted      *prometheus.CounterVec
	rejected       prometheus.Counter
	finished       *prometheus.CounterVec
	active         prometheus.Gauge
	duration       *prometheus.HistogramVec
	deliveredBytes prometheus.Counter
	delivered      prometheus.Counter
	cleanupErrors  prometheus.Counter
	swept          prometheus.Counter
}

// New builds a Recorder with a private registry. Go runtime and process
// collectors are included so /metrics is useful on its own.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.submitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_submitted_total",
		Help:      "Jobs accepted for processing by request kind.",
	}, []string{"kind"})
	r.rejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_rejected_total",
		Help:      "Submissions rejected by admission control.",
	})
	r.finished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_finished_total",
		Help:      "Jobs that reached a terminal status.",
	}, []string{"kind", "status"})
	r.active = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_active",
		Help:      "Accepted jobs that have not reached a terminal status.",
	})
	r.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time from worker start to terminal status.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"kind", "status"})
	r.deliveredBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivered_bytes_total",
		Help:      "Artifact bytes written to result consumers.",
	})
	r.delivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artifacts_delivered_total",
		Help:      "Artifacts handed to a result consumer and purged.",
	})
	r.cleanupErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_errors_total",
		Help:      "Failures while purging records or artifact files.",
	})
	r.swept = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_swept_total",
		Help:      "Stale terminal jobs removed by the janitor.",
	})

	r.registry.MustRegister(
		r.submitted,
		r.rejected,
		r.finished,
		r.active,
		r.duration,
		r.deliveredBytes,
		r.delivered,
		r.cleanupErrors,
		r.swept,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// JobRejected implements workflow.Observer.
func (r *Recorder) JobRejected() {
	r.rejected.Inc()
}

// JobStarted implements workflow.Observer.
func (r *Recorder) JobStarted(kind jobs.RequestKind) {
	r.submitted.WithLabelValues(string(kind)).Inc()
	r.active.Inc()
}

// JobFinished implements workflow.Observer.
func (r *Recorder) JobFinished(kind jobs.RequestKind, status jobs.Status, elapsed time.Duration) {
	r.active.Dec()
	r.finished.WithLabelValues(string(kind), string(status)).Inc()
	r.duration.WithLabelValues(string(kind), string(status)).Observe(elapsed.Seconds())
}

// ArtifactDelivered implements delivery.Observer.
func (r *Recorder) ArtifactDelivered(bytes int64) {
	r.delivered.Inc()
	if bytes > 0 {
		r.deliveredBytes.Add(float64(bytes))
	}
}

// CleanupFailed implements delivery.Observer.
func (r *Recorder) CleanupFailed() {
	r.cleanupErrors.Inc()
}

// JobsSwept implements delivery.Observer.
func (r *Recorder) JobsSwept(count int) {
	if count > 0 {
		r.swept.Add(float64(count))
	}
}
