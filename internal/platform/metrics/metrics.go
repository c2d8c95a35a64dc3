// Package metrics exposes Prometheus instrumentation for outbound calls and
// pipeline stages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paperflow"

// Metrics groups every collector used by the client and the orchestrator.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ClientRequests *prometheus.CounterVec
	ClientDuration *prometheus.HistogramVec
	ClientRetries  *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	LimiterWait    *prometheus.HistogramVec

	RunsTotal     *prometheus.CounterVec
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	ActiveRuns    prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ClientRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_requests_total",
				Help:      "Outbound requests by call class and outcome",
			},
			[]string{"class", "outcome"},
		),

		ClientDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "client_request_duration_seconds",
				Help:      "Duration of single outbound attempts",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"class"},
		),

		ClientRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "client_retries_total",
				Help:      "Retries of transient outbound failures",
			},
			[]string{"class"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),

		LimiterWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "limiter_wait_seconds",
				Help:      "Time spent waiting for a rate limiter token",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"class"},
		),

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Pipeline runs by terminal status",
			},
			[]string{"status"},
		),

		StageRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_runs_total",
				Help:      "Stage executions by outcome",
			},
			[]string{"stage", "outcome"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of stage executions",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stage"},
		),

		ActiveRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_active_runs",
				Help:      "Runs currently executing",
			},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one outbound attempt.
func (m *Metrics) ObserveRequest(class, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ClientRequests.WithLabelValues(class, outcome).Inc()
	m.ClientDuration.WithLabelValues(class).Observe(d.Seconds())
}

// ObserveRetry records a retry of a transient failure.
func (m *Metrics) ObserveRetry(class string) {
	if m == nil {
		return
	}
	m.ClientRetries.WithLabelValues(class).Inc()
}

// ObserveCache records a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveLimiterWait records time spent in Acquire.
func (m *Metrics) ObserveLimiterWait(class string, d time.Duration) {
	if m == nil {
		return
	}
	m.LimiterWait.WithLabelValues(class).Observe(d.Seconds())
}

// RunStarted increments the active run gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

// RunFinished decrements the active run gauge and counts the terminal status.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records a finished stage.
func (m *Metrics) ObserveStage(stage string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	m.StageRuns.WithLabelValues(stage, outcome).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
