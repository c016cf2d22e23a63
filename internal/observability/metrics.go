// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package observability holds the Prometheus instrumentation for the
// CityPulse server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis pipeline and the background sync job.
type Metrics struct {
	AnalyzeRequests *prometheus.CounterVec // labels: intent
	AnalyzeErrors   prometheus.Counter
	AnalyzeDuration prometheus.Histogram

	// SQL provider metrics.
	ProviderAttempts   *prometheus.CounterVec // labels: source={playground,direct,fallback}, outcome={success,error}
	FallbackSelections *prometheus.CounterVec // labels: template

	// Background sync metrics.
	SyncRecords *prometheus.CounterVec // labels: source={police,fire,cases311,earthquakes}
	SyncErrors  *prometheus.CounterVec // labels: source
	SyncRunning prometheus.Gauge

	// Report metrics.
	ReportsGenerated prometheus.Counter
}

// NewMetrics creates and registers all server metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AnalyzeRequests,
		m.AnalyzeErrors,
		m.AnalyzeDuration,
		m.ProviderAttempts,
		m.FallbackSelections,
		m.SyncRecords,
		m.SyncErrors,
		m.SyncRunning,
		m.ReportsGenerated,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalyzeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "analyze_requests_total",
			Help:      "Analysis requests by classified intent.",
		}, []string{"intent"}),
		AnalyzeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "analyze_errors_total",
			Help:      "Analysis requests that returned a structured error payload.",
		}),
		AnalyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "citypulse",
			Name:      "analyze_duration_seconds",
			Help:      "End-to-end duration of a complete analysis request.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProviderAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "provider_attempts_total",
			Help:      "SQL generation attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		FallbackSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "fallback_selections_total",
			Help:      "Local fallback template selections by template name.",
		}, []string{"template"}),
		SyncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "sync_records_total",
			Help:      "Records upserted by the background sync, by source.",
		}, []string{"source"}),
		SyncErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "sync_errors_total",
			Help:      "Sync fetch failures by source.",
		}, []string{"source"}),
		SyncRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "citypulse",
			Name:      "sync_running",
			Help:      "1 when the sync scheduler is active, 0 otherwise.",
		}),
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citypulse",
			Name:      "reports_generated_total",
			Help:      "PDF reports generated.",
		}),
	}
}
