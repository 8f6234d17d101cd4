// Package metrics exposes the engine's operational counters as
// Prometheus collectors: operation counts and latencies, and periodic
// gauges for the LSM level structure and value-log occupancy. Wiring
// follows the same promauto-free, explicit NewXxx/MustRegister pattern
// client_golang itself documents, since the engine already owns its own
// constructor (engine.New) rather than relying on package-level init.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every collector the engine reports through. A nil
// *Registry is valid and every method on it is a no-op, so instrumenting
// the engine costs callers nothing when they don't ask for metrics.
type Registry struct {
	ops       *prometheus.CounterVec
	opErrors  *prometheus.CounterVec
	opLatency *prometheus.HistogramVec

	background        *prometheus.CounterVec
	backgroundErrors   *prometheus.CounterVec
	backgroundLatency *prometheus.HistogramVec

	memtableBytes   prometheus.Gauge
	levelFiles      *prometheus.GaugeVec
	levelBytes      *prometheus.GaugeVec
	vlogSealedBytes prometheus.Gauge
}

// NewRegistry builds a Registry and registers every collector with reg.
// Callers typically pass prometheus.NewRegistry() (isolated) or
// prometheus.DefaultRegisterer wrapped via prometheus.WrapRegistererWith
// to add a constant "db" label when running several instances in one
// process.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ignite",
			Name:      "operations_total",
			Help:      "Count of Put/Get/Delete calls by operation.",
		}, []string{"op"}),
		opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ignite",
			Name:      "operation_errors_total",
			Help:      "Count of Put/Get/Delete calls that returned an error.",
		}, []string{"op"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ignite",
			Name:      "operation_latency_seconds",
			Help:      "Latency of Put/Get/Delete calls.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 20),
		}, []string{"op"}),

		background: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ignite",
			Name:      "background_jobs_total",
			Help:      "Count of completed background flush/compact/gc passes.",
		}, []string{"kind"}),
		backgroundErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ignite",
			Name:      "background_job_errors_total",
			Help:      "Count of background flush/compact/gc passes that returned an error.",
		}, []string{"kind"}),
		backgroundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ignite",
			Name:      "background_job_latency_seconds",
			Help:      "Latency of background flush/compact/gc passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 20),
		}, []string{"kind"}),

		memtableBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ignite",
			Name:      "active_memtable_bytes",
			Help:      "Size in bytes of the active memtable.",
		}),
		levelFiles: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ignite",
			Name:      "level_files",
			Help:      "Number of live SST files per level.",
		}, []string{"level"}),
		levelBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ignite",
			Name:      "level_bytes",
			Help:      "Estimated bytes of live SST data per level.",
		}, []string{"level"}),
		vlogSealedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ignite",
			Name:      "vlog_sealed_bytes",
			Help:      "Aggregate size of sealed (not yet reclaimed) value-log segments.",
		}),
	}

	reg.MustRegister(
		r.ops, r.opErrors, r.opLatency,
		r.background, r.backgroundErrors, r.backgroundLatency,
		r.memtableBytes, r.levelFiles, r.levelBytes, r.vlogSealedBytes,
	)
	return r
}

// ObserveOp records one foreground operation's latency and, on failure,
// increments the error counter for op.
func (r *Registry) ObserveOp(op string, seconds float64, err error) {
	if r == nil {
		return
	}
	r.ops.WithLabelValues(op).Inc()
	r.opLatency.WithLabelValues(op).Observe(seconds)
	if err != nil {
		r.opErrors.WithLabelValues(op).Inc()
	}
}

// ObserveBackground records one background job pass's latency and, on
// failure, increments the error counter for kind.
func (r *Registry) ObserveBackground(kind string, seconds float64, err error) {
	if r == nil {
		return
	}
	r.background.WithLabelValues(kind).Inc()
	r.backgroundLatency.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		r.backgroundErrors.WithLabelValues(kind).Inc()
	}
}

// SetMemtableBytes updates the active memtable size gauge.
func (r *Registry) SetMemtableBytes(n int64) {
	if r == nil {
		return
	}
	r.memtableBytes.Set(float64(n))
}

// SetLevelStats replaces one level's file-count and byte-size gauges.
// Callers call it once per level on every update since the LSM's level
// count can grow; stale labels from levels that no longer exist
// are left at their last value, which is harmless for a store that only
// ever adds deeper levels over its lifetime.
func (r *Registry) SetLevelStats(level int, files int, bytes int64) {
	if r == nil {
		return
	}
	label := levelLabel(level)
	r.levelFiles.WithLabelValues(label).Set(float64(files))
	r.levelBytes.WithLabelValues(label).Set(float64(bytes))
}

// SetVlogSealedBytes updates the sealed value-log byte gauge.
func (r *Registry) SetVlogSealedBytes(n int64) {
	if r == nil {
		return
	}
	r.vlogSealedBytes.Set(float64(n))
}

func levelLabel(level int) string {
	return strconv.Itoa(level)
}
