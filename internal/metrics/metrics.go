// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records pipeline and per-source Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeModel    = "model"
	OutcomeFallback = "fallback"
	OutcomeDegraded = "degraded"
)

var (
	once sync.Once

	registry = prometheus.NewRegistry()

	sourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deep_research_source_latency_ms",
		Help:    "Latency of source connector calls in milliseconds",
		Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
	}, []string{"source", "operation"})

	sourceResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deep_research_source_results_total",
		Help: "Source connector calls by outcome",
	}, []string{"source", "outcome"})

	classification = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deep_research_classification_total",
		Help: "Query classifications by outcome (model or fallback)",
	}, []string{"outcome"})

	synthesis = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deep_research_synthesis_total",
		Help: "Synthesis calls by outcome (ok or degraded)",
	}, []string{"outcome"})

	requestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deep_research_request_latency_ms",
		Help:    "End-to-end latency of research requests in milliseconds",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	})
)

func ensureRegistered() {
	once.Do(func() {
		registry.MustRegister(sourceLatency, sourceResults, classification, synthesis, requestLatency)
	})
}

// ObserveSource records latency and outcome for one connector call.
func ObserveSource(source, operation string, start time.Time, err error) {
	ensureRegistered()
	sourceLatency.WithLabelValues(source, operation).Observe(float64(time.Since(start).Milliseconds()))
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	sourceResults.WithLabelValues(source, outcome).Inc()
}

// IncClassification counts a classification by outcome.
func IncClassification(outcome string) {
	ensureRegistered()
	classification.WithLabelValues(outcome).Inc()
}

// IncSynthesis counts a synthesis by outcome.
func IncSynthesis(outcome string) {
	ensureRegistered()
	synthesis.WithLabelValues(outcome).Inc()
}

// ObserveRequest records end-to-end request latency.
func ObserveRequest(start time.Time) {
	ensureRegistered()
	requestLatency.Observe(float64(time.Since(start).Milliseconds()))
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
