// Package metrics records streamcheck passes as Prometheus metrics.
//
// The command is short-lived, so metrics live in a private registry and are
// exported once per run through the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jpalmerr/streamcheck"
)

// latencyBuckets covers fast local streams up to the default probe timeout.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Recorder holds the streamcheck metrics.
type Recorder struct {
	registry *prometheus.Registry

	probesTotal    *prometheus.CounterVec
	probeLatency   *prometheus.HistogramVec
	passingGauge   *prometheus.GaugeVec
	passDuration   *prometheus.GaugeVec
	lastRunSeconds prometheus.Gauge
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.probesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamcheck_probes_total",
			Help: "Total number of probes by playlist and status",
		},
		[]string{"playlist", "status"},
	)

	r.probeLatency = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamcheck_probe_latency_seconds",
			Help:    "Latency of probes that received a response",
			Buckets: latencyBuckets,
		},
		[]string{"playlist"},
	)

	r.passingGauge = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamcheck_passing_endpoints",
			Help: "Number of endpoints in the last filtered report",
		},
		[]string{"playlist"},
	)

	r.passDuration = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamcheck_pass_duration_seconds",
			Help: "Wall-clock duration of the last pass",
		},
		[]string{"playlist"},
	)

	r.lastRunSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamcheck_last_run_timestamp_seconds",
			Help: "Unix time the last pass finished",
		},
	)

	return r
}

// Registry returns the registry holding the streamcheck metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveOutcome records a single probe outcome.
// Offline outcomes carry no measurement and are counted but not timed.
func (r *Recorder) ObserveOutcome(playlist string, o streamcheck.Outcome) {
	r.probesTotal.WithLabelValues(playlist, o.Status.Kind().String()).Inc()
	if o.Status.Kind() != streamcheck.KindOffline {
		r.probeLatency.WithLabelValues(playlist).Observe(float64(o.LatencyMs) / 1000)
	}
}

// ObserveReport records the result of a finished pass.
func (r *Recorder) ObserveReport(playlist string, report streamcheck.Report, elapsed time.Duration) {
	r.passingGauge.WithLabelValues(playlist).Set(float64(report.Count()))
	r.passDuration.WithLabelValues(playlist).Set(elapsed.Seconds())
	r.lastRunSeconds.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is written atomically so node_exporter never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
