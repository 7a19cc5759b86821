// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "portal"
	metricsSubsystem = "search"
)

// Metrics instruments source fetches and aggregation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// FetchesTotal counts fetches by source and outcome (ok, error).
	FetchesTotal *prometheus.CounterVec
	// FetchDuration observes fetch latency per source, retries included.
	FetchDuration *prometheus.HistogramVec
	// ResultsReturned observes the size of each ranked list.
	ResultsReturned prometheus.Histogram
	// PaddedTotal counts static records appended to reach the floor.
	PaddedTotal prometheus.Counter
}

// NewMetrics registers the search metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "source_fetches_total",
			Help:      "Source fetches by source and outcome",
		}, []string{"source", "outcome"}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "source_fetch_duration_seconds",
			Help:      "Source fetch latency including cold-start retries",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		ResultsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "results_returned",
			Help:      "Number of ranked results per search",
			Buckets:   []float64{0, 1, 3, 5, 10, 25, 50, 100},
		}),
		PaddedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "static_padding_total",
			Help:      "Static fallback records appended to sparse results",
		}),
	}
}

func (m *Metrics) recordFetch(source SourceTag, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchesTotal.WithLabelValues(string(source), outcome).Inc()
	m.FetchDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

func (m *Metrics) recordSearch(results, padded int) {
	if m == nil {
		return
	}
	m.ResultsReturned.Observe(float64(results))
	m.PaddedTotal.Add(float64(padded))
}
