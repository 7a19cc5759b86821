// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides HTTP-level metrics for the portal service.
//
// # Description
//
// Request counters and latency histograms for every route, plus an error
// counter keyed by the API error code. Router- and aggregator-level metrics
// live with their packages (services/answer, services/search) and share the
// same registry.
//
// # Integration
//
// Metrics are exposed via /metrics. The registry is passed in rather than
// taken from the global default so tests can build isolated instances.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

const metricsNamespace = "portal"

const httpSubsystem = "http"

// unmatchedRoute labels requests that matched no registered route, keeping
// label cardinality bounded.
const unmatchedRoute = "unmatched"

// HTTPMetrics holds the Prometheus metrics for the HTTP surface.
//
// # Fields
//
//   - RequestsTotal: Requests by route template, method and status code
//   - RequestDurationSeconds: Latency by route template and method
//   - ErrorsTotal: Error responses by route and API error code
//
// # Thread Safety
//
// All operations are thread-safe.
type HTTPMetrics struct {
	// RequestsTotal counts requests.
	// Labels: route (/v1/answer, ...), method, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds observes request latency.
	// Labels: route, method
	RequestDurationSeconds *prometheus.HistogramVec

	// ErrorsTotal counts error bodies written by handlers.
	// Labels: route, error_code (INVALID_REQUEST, ALL_PROVIDERS_EXHAUSTED, INTERNAL_ERROR)
	ErrorsTotal *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers the HTTP metrics with reg.
//
// # Limitations
//
//   - Panics if called twice against the same registry (duplicate registration).
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		RequestDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route", "method"},
		),

		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "errors_total",
				Help:      "Error responses by route and API error code",
			},
			[]string{"route", "error_code"},
		),
	}
}

// Middleware records RequestsTotal and RequestDurationSeconds for every
// request. Route labels use the registered template, not the raw path.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDurationSeconds.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// RecordError increments ErrorsTotal. Safe on a nil receiver.
func (m *HTTPMetrics) RecordError(route, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(route, code).Inc()
}
