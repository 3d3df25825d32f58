// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/phishguard/internal/core"
)

// Recorder implements core.MetricsRecorder on a private registry
type Recorder struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	riskLevels      *prometheus.CounterVec
	narrativeResult *prometheus.CounterVec
	scoringDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder whose metric names are prefixed with namespace
func NewRecorder(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis runs by outcome (completed or failed).",
		}, []string{"outcome"}),
		riskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "risk_level_total",
			Help:      "Completed analyses by risk level.",
		}, []string{"level"}),
		narrativeResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "narrative",
			Name:      "requests_total",
			Help:      "Narrative requests by result (generated or fallback).",
		}, []string{"result"}),
		scoringDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "request_duration_seconds",
			Help:      "Latency of scoring service requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}

	r.registry.MustRegister(
		r.runs,
		r.riskLevels,
		r.narrativeResult,
		r.scoringDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveScoring records the latency of one scoring request
func (r *Recorder) ObserveScoring(duration time.Duration, err error) {
	r.scoringDuration.WithLabelValues(outcome(err)).Observe(duration.Seconds())
}

// ObserveNarrative records whether the narrative fell back
func (r *Recorder) ObserveNarrative(fallback bool) {
	result := "generated"
	if fallback {
		result = "fallback"
	}
	r.narrativeResult.WithLabelValues(result).Inc()
}

// ObserveRun records the outcome of one analysis run
func (r *Recorder) ObserveRun(level core.RiskLevel, err error) {
	if err != nil {
		r.runs.WithLabelValues("failed").Inc()
		return
	}
	r.runs.WithLabelValues("completed").Inc()
	r.riskLevels.WithLabelValues(string(level)).Inc()
}

// Registry returns the registry holding all metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "completed"
}
