// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package answer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes used as metric labels.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// Metrics instruments the router. A nil *Metrics records nothing.
type Metrics struct {
	// AnswersTotal counts resolved requests by the tier that answered.
	// Labels: provider (knowledge-base, primary, secondary, none)
	AnswersTotal *prometheus.CounterVec

	// AttemptsTotal counts provider attempts by provider and outcome.
	// Labels: provider (gemini, openai), outcome (success, rate_limited, failed)
	AttemptsTotal *prometheus.CounterVec

	// AttemptDuration observes per-attempt latency.
	// Labels: provider
	AttemptDuration *prometheus.HistogramVec
}

// NewMetrics registers the router metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnswersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "answer",
			Name:      "answers_total",
			Help:      "Resolved answer requests by answering tier",
		}, []string{"provider"}),
		AttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "answer",
			Name:      "provider_attempts_total",
			Help:      "Provider attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		AttemptDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "answer",
			Name:      "provider_attempt_duration_seconds",
			Help:      "Latency of a single provider attempt",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
	}
}

func (m *Metrics) recordAnswer(p ProviderUsed) {
	if m == nil {
		return
	}
	m.AnswersTotal.WithLabelValues(string(p)).Inc()
}

func (m *Metrics) recordAttempt(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(provider, outcome).Inc()
	m.AttemptDuration.WithLabelValues(provider).Observe(seconds)
}
