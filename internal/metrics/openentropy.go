// Package metrics provides Prometheus-compatible metrics for openentropy.
package metrics

import (
	"net/http"
	"time"
)

// OpenEntropyMetrics holds all OpenEntropy-specific metrics.
type OpenEntropyMetrics struct {
	registry *Registry

	// Counters
	BytesCollectedTotal     *Counter
	ReseedsTotal            *Counter
	CollectTimeoutsTotal    *Counter
	HealthTestFailuresTotal *Counter
	ErrorsTotal             *Counter

	// Gauges
	SourceHealthy  *Gauge
	SourceDegraded *Gauge
	SourceFailed   *Gauge
	UptimeSeconds  *Gauge
	ShannonEntropy *Gauge
	MinEntropy     *Gauge

	// Histograms
	CollectDuration      *Histogram
	ConditioningDuration *Histogram
}

var startTime = time.Now()

// NewOpenEntropyMetrics creates and registers all OpenEntropy metrics.
func NewOpenEntropyMetrics(registry *Registry) *OpenEntropyMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &OpenEntropyMetrics{
		registry: registry,

		BytesCollectedTotal: registry.RegisterCounter(
			"bytes_collected_total",
			"Total number of raw entropy bytes collected from all sources",
			nil,
		),
		ReseedsTotal: registry.RegisterCounter(
			"reseeds_total",
			"Total number of hash-chain DRBG reseed operations",
			nil,
		),
		CollectTimeoutsTotal: registry.RegisterCounter(
			"collect_timeouts_total",
			"Total number of source collect() calls that hit the timeout",
			nil,
		),
		HealthTestFailuresTotal: registry.RegisterCounter(
			"health_test_failures_total",
			"Total number of NIST SP 800-90B online health test failures",
			nil,
		),
		ErrorsTotal: registry.RegisterCounter(
			"errors_total",
			"Total number of errors",
			nil,
		),

		SourceHealthy: registry.RegisterGauge(
			"sources_healthy",
			"Number of sources currently in the healthy state",
			nil,
		),
		SourceDegraded: registry.RegisterGauge(
			"sources_degraded",
			"Number of sources currently in the degraded state",
			nil,
		),
		SourceFailed: registry.RegisterGauge(
			"sources_failed",
			"Number of sources currently in the failed state",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds the pool has been running",
			nil,
		),
		ShannonEntropy: registry.RegisterGauge(
			"shannon_entropy_millibits_per_byte",
			"Shannon entropy of the most recent pool sample, in thousandths of a bit per byte",
			nil,
		),
		MinEntropy: registry.RegisterGauge(
			"min_entropy_millibits_per_byte",
			"Min-entropy (MCV estimate) of the most recent pool sample, in thousandths of a bit per byte",
			nil,
		),

		CollectDuration: registry.RegisterHistogram(
			"collect_duration_seconds",
			"Duration of a parallel pool collection round",
			nil,
			DurationBuckets,
		),
		ConditioningDuration: registry.RegisterHistogram(
			"conditioning_duration_seconds",
			"Duration of the conditioning step applied to raw pool output",
			nil,
			[]float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		),
	}

	return m
}

// RecordCollect records a parallel collection round.
func (m *OpenEntropyMetrics) RecordCollect(duration time.Duration, bytesCollected int) {
	m.CollectDuration.ObserveDuration(duration)
	m.BytesCollectedTotal.Add(uint64(bytesCollected))
}

// StartCollectTimer returns a timer for a collection round.
func (m *OpenEntropyMetrics) StartCollectTimer() *HistogramTimer {
	return m.CollectDuration.Timer()
}

// RecordCollectTimeout records a source collect() call that timed out.
func (m *OpenEntropyMetrics) RecordCollectTimeout() {
	m.CollectTimeoutsTotal.Inc()
}

// RecordConditioning records a conditioning pass over raw pool output.
func (m *OpenEntropyMetrics) RecordConditioning(duration time.Duration) {
	m.ConditioningDuration.ObserveDuration(duration)
}

// RecordReseed records a hash-chain DRBG reseed.
func (m *OpenEntropyMetrics) RecordReseed() {
	m.ReseedsTotal.Inc()
}

// RecordHealthTestFailure records an online health test failure.
func (m *OpenEntropyMetrics) RecordHealthTestFailure() {
	m.HealthTestFailuresTotal.Inc()
}

// RecordError records an error.
func (m *OpenEntropyMetrics) RecordError() {
	m.ErrorsTotal.Inc()
}

// SetSourceCounts updates the per-state source gauges.
func (m *OpenEntropyMetrics) SetSourceCounts(healthy, degraded, failed int64) {
	m.SourceHealthy.Set(healthy)
	m.SourceDegraded.Set(degraded)
	m.SourceFailed.Set(failed)
}

// SetEntropyEstimates updates the Shannon and min-entropy gauges. The
// gauges are integers, so both estimates are stored multiplied by 1000.
func (m *OpenEntropyMetrics) SetEntropyEstimates(shannon, minEntropy float64) {
	m.ShannonEntropy.Set(int64(shannon * 1000))
	m.MinEntropy.Set(int64(minEntropy * 1000))
}

// UpdateUptime updates the uptime metric.
func (m *OpenEntropyMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Handler returns the text-exposition HTTP handler for the registry
// backing these metrics, suitable for mounting at /metrics.
func (m *OpenEntropyMetrics) Handler() http.Handler {
	return m.registry.HTTPHandler()
}

// Snapshot returns a snapshot of key metrics.
func (m *OpenEntropyMetrics) Snapshot() map[string]interface{} {
	m.UpdateUptime()
	return map[string]interface{}{
		"bytes_collected_total":      m.BytesCollectedTotal.Value(),
		"reseeds_total":              m.ReseedsTotal.Value(),
		"collect_timeouts_total":     m.CollectTimeoutsTotal.Value(),
		"health_test_failures_total": m.HealthTestFailuresTotal.Value(),
		"errors_total":               m.ErrorsTotal.Value(),
		"sources_healthy":            m.SourceHealthy.Value(),
		"sources_degraded":           m.SourceDegraded.Value(),
		"sources_failed":             m.SourceFailed.Value(),
		"uptime_seconds":             m.UptimeSeconds.Value(),
		"collect_avg_seconds":        m.CollectDuration.Mean(),
	}
}

// Global OpenEntropy metrics instance.
var defaultOpenEntropyMetrics *OpenEntropyMetrics

// GetMetrics returns the global OpenEntropy metrics instance.
func GetMetrics() *OpenEntropyMetrics {
	if defaultOpenEntropyMetrics == nil {
		defaultOpenEntropyMetrics = NewOpenEntropyMetrics(Default())
	}
	return defaultOpenEntropyMetrics
}

// InitMetrics initializes the global OpenEntropy metrics with a custom registry.
func InitMetrics(registry *Registry) *OpenEntropyMetrics {
	defaultOpenEntropyMetrics = NewOpenEntropyMetrics(registry)
	return defaultOpenEntropyMetrics
}
